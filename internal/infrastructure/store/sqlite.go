package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/packlens/backend/internal/domain"
)

// SQLiteStore persists products and their images.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS products (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        product_name TEXT,
        volume TEXT,
        manufacturer TEXT,
        seller TEXT,
        price_info TEXT,
        price_tax_excluded TEXT,
        product_url TEXT,
        image_path TEXT,
        ingredients TEXT,
        appeals TEXT,
        category TEXT DEFAULT 'Other',
        nutrition_energy TEXT,
        nutrition_protein TEXT,
        nutrition_fat TEXT,
        nutrition_carbs TEXT,
        nutrition_sugar TEXT,
        nutrition_fiber TEXT,
        nutrition_salt TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS product_images (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        product_id INTEGER NOT NULL,
        image_path TEXT NOT NULL,
        is_primary BOOLEAN DEFAULT 0,
        display_order INTEGER DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
    CREATE INDEX IF NOT EXISTS idx_product_images_product_id ON product_images(product_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const productColumns = `id, product_name, volume, manufacturer, seller,
    price_info, price_tax_excluded, product_url, image_path,
    ingredients, appeals, category,
    nutrition_energy, nutrition_protein, nutrition_fat, nutrition_carbs,
    nutrition_sugar, nutrition_fiber, nutrition_salt,
    created_at, updated_at`

// Add inserts a product and returns its generated id.
func (s *SQLiteStore) Add(ctx context.Context, p *domain.Product) (int64, error) {
	ingredients, err := marshalList(p.Ingredients)
	if err != nil {
		return 0, err
	}
	appeals, err := marshalList(p.Appeals)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO products (
            product_name, volume, manufacturer, seller,
            price_info, price_tax_excluded, product_url, image_path,
            ingredients, appeals, category,
            nutrition_energy, nutrition_protein, nutrition_fat, nutrition_carbs,
            nutrition_sugar, nutrition_fiber, nutrition_salt,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProductName, p.Volume, p.Manufacturer, nullable(p.Seller),
		p.PriceInfo, p.PriceTaxExcluded, p.ProductURL, nullable(p.ImagePath),
		ingredients, appeals, string(p.Category),
		nullable(p.Nutrition.Energy), nullable(p.Nutrition.Protein),
		nullable(p.Nutrition.Fat), nullable(p.Nutrition.Carbs),
		nullable(p.Nutrition.Sugar), nullable(p.Nutrition.Fiber),
		nullable(p.Nutrition.Salt),
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	return res.LastInsertId()
}

// GetByID returns one product with its image paths attached.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	images, err := s.ListImages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		p.ImagePaths = append(p.ImagePaths, img.ImagePath)
		if img.IsPrimary && p.ImagePath == "" {
			p.ImagePath = img.ImagePath
		}
	}
	return p, nil
}

// List returns all products, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

// ListByCategory returns products in one category, newest first.
func (s *SQLiteStore) ListByCategory(ctx context.Context, c domain.Category) ([]domain.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = ? ORDER BY created_at DESC`,
		string(c))
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Update rewrites every mutable column of an existing product.
func (s *SQLiteStore) Update(ctx context.Context, p *domain.Product) error {
	ingredients, err := marshalList(p.Ingredients)
	if err != nil {
		return err
	}
	appeals, err := marshalList(p.Appeals)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
        UPDATE products SET
            product_name = ?, volume = ?, manufacturer = ?, seller = ?,
            price_info = ?, price_tax_excluded = ?, product_url = ?, image_path = ?,
            ingredients = ?, appeals = ?, category = ?,
            nutrition_energy = ?, nutrition_protein = ?, nutrition_fat = ?,
            nutrition_carbs = ?, nutrition_sugar = ?, nutrition_fiber = ?,
            nutrition_salt = ?, updated_at = ?
        WHERE id = ?`,
		p.ProductName, p.Volume, p.Manufacturer, nullable(p.Seller),
		p.PriceInfo, p.PriceTaxExcluded, p.ProductURL, nullable(p.ImagePath),
		ingredients, appeals, string(p.Category),
		nullable(p.Nutrition.Energy), nullable(p.Nutrition.Protein),
		nullable(p.Nutrition.Fat), nullable(p.Nutrition.Carbs),
		nullable(p.Nutrition.Sugar), nullable(p.Nutrition.Fiber),
		nullable(p.Nutrition.Salt), time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireRow(res, domain.ErrProductNotFound)
}

// Delete removes a product and, through the cascade, its images.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRow(res, domain.ErrProductNotFound)
}

// AddImage attaches one stored image to a product.
func (s *SQLiteStore) AddImage(ctx context.Context, img *domain.ProductImage) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO product_images (product_id, image_path, is_primary, display_order)
        VALUES (?, ?, ?, ?)`,
		img.ProductID, img.ImagePath, img.IsPrimary, img.DisplayOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}
	return res.LastInsertId()
}

// ListImages returns a product's images in display order.
func (s *SQLiteStore) ListImages(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, product_id, image_path, is_primary, display_order
        FROM product_images WHERE product_id = ?
        ORDER BY display_order, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []domain.ProductImage
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ImagePath, &img.IsPrimary, &img.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes one stored image.
func (s *SQLiteStore) DeleteImage(ctx context.Context, imageID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM product_images WHERE id = ?`, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return requireRow(res, domain.ErrImageNotFound)
}

// ReorderImages rewrites display order to match the given id sequence.
func (s *SQLiteStore) ReorderImages(ctx context.Context, productID int64, imageIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for order, id := range imageIDs {
		if _, err := tx.ExecContext(ctx, `
            UPDATE product_images SET display_order = ?
            WHERE id = ? AND product_id = ?`, order, id, productID); err != nil {
			return fmt.Errorf("failed to reorder image %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p                               domain.Product
		seller, imagePath               sql.NullString
		priceInfo, taxExcluded, prodURL sql.NullString
		ingredients, appeals            sql.NullString
		category                        string
		energy, protein, fat, carbs     sql.NullString
		sugar, fiber, salt              sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.ProductName, &p.Volume, &p.Manufacturer, &seller,
		&priceInfo, &taxExcluded, &prodURL, &imagePath,
		&ingredients, &appeals, &category,
		&energy, &protein, &fat, &carbs, &sugar, &fiber, &salt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Seller = seller.String
	p.ImagePath = imagePath.String
	p.PriceInfo = priceInfo.String
	if taxExcluded.Valid {
		p.PriceTaxExcluded = &taxExcluded.String
	}
	if prodURL.Valid {
		p.ProductURL = &prodURL.String
	}
	p.Category, _ = domain.ParseCategory(category)
	p.Ingredients = unmarshalList(ingredients.String)
	p.Appeals = unmarshalList(appeals.String)
	p.Nutrition = domain.Nutrition{
		Energy:  energy.String,
		Protein: protein.String,
		Fat:     fat.String,
		Carbs:   carbs.String,
		Sugar:   sugar.String,
		Fiber:   fiber.String,
		Salt:    salt.String,
	}
	return &p, nil
}

func marshalList(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func unmarshalList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ domain.ProductRepository = (*SQLiteStore)(nil)
