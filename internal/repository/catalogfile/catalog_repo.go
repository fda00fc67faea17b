package catalogfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/printlab-tech/shopbot-backend/internal/domain"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// defaultProducts — стартовый ассортимент, записывается при отсутствии файла каталога.
var defaultProducts = []string{
	"Пластик PLA|150.00|Качественный PLA пластик для 3D печати",
	"Пластик ABS|180.00|Прочный ABS пластик",
	"Пластик PETG|200.00|Гибкий PETG пластик",
	"Подставка для телефона|300.00|Стильная подставка для смартфона",
	"Чехол для наушников|250.00|Защитный чехол для беспроводных наушников",
	"Статуэтка персонажа|500.00|Кастомная фигурка по вашему дизайну",
}

// CatalogRepo — каталог товаров, загружаемый из плоского файла один раз при
// старте процесса. Идентификаторы позиционные: порядковый номер валидной
// строки, начиная с 1. Файл на лету не перечитывается.
type CatalogRepo struct {
	products []domain.Product
	byID     map[int64]*domain.Product
	logger   logger.Logger
}

// NewCatalogRepo создаёт файл с ассортиментом по умолчанию, если его нет,
// и загружает каталог в память. Битые строки пропускаются с предупреждением.
func NewCatalogRepo(path string, log logger.Logger) (*CatalogRepo, error) {
	if err := ensureCatalogFile(path, log); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	products, err := loadProducts(path, log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	repo := &CatalogRepo{
		products: products,
		byID:     make(map[int64]*domain.Product, len(products)),
		logger:   log,
	}
	for i := range repo.products {
		repo.byID[repo.products[i].ID] = &repo.products[i]
	}

	log.Infof("Каталог загружен: %d товаров из %s", len(products), path)

	return repo, nil
}

// ListAll возвращает товары в порядке следования в файле.
func (c *CatalogRepo) ListAll() []domain.Product {
	result := make([]domain.Product, len(c.products))
	copy(result, c.products)

	return result
}

// GetByID возвращает товар или e.ErrProductNotFound.
func (c *CatalogRepo) GetByID(id int64) (*domain.Product, error) {
	product, ok := c.byID[id]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return product, nil
}

func ensureCatalogFile(path string, log logger.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	content := strings.Join(defaultProducts, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}

	log.Infof("Создан файл каталога по умолчанию: %s", path)

	return nil
}

func loadProducts(path string, log logger.Logger) ([]domain.Product, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var products []domain.Product
	var nextID int64 = 1

	scanner := bufio.NewScanner(file)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		product, err := parseLine(line, nextID)
		if err != nil {
			log.Warnf("Строка каталога %d пропущена: %v", lineNo, err)
			continue
		}

		products = append(products, *product)
		nextID++
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// parseLine разбирает строку формата "название|цена|описание".
// Цена в файле указана в рублях, хранится в копейках.
func parseLine(line string, id int64) (*domain.Product, error) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected 3 fields separated by '|', got %d", len(parts))
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return nil, fmt.Errorf("empty product name")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", parts[1], err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("negative price %q", parts[1])
	}

	kopecks := price.Mul(decimal.NewFromInt(100)).IntPart()

	return domain.NewProduct(id, name, kopecks, strings.TrimSpace(parts[2])), nil
}
