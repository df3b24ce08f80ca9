package http

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/packlens/backend/internal/domain"
	"github.com/packlens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extraction *usecase.ExtractionService
	commerce   *usecase.CommerceService
	products   domain.ProductRepository
	uploadDir  string
}

// NewHandler creates a new HTTP handler
func NewHandler(extraction *usecase.ExtractionService, commerce *usecase.CommerceService, products domain.ProductRepository, uploadDir string) *Handler {
	return &Handler{
		extraction: extraction,
		commerce:   commerce,
		products:   products,
		uploadDir:  uploadDir,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "packlens-backend",
		"version": "1.0.0",
	})
}

// UploadProduct accepts one or more package photos, extracts a product
// record from them, enriches it with price and URL data and stores it.
func (h *Handler) UploadProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		// Single-file clients use the "image" field.
		files = form.File["image"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image files provided"})
		return
	}

	var (
		inputs []domain.ImageInput
		saved  []string
	)
	for _, fh := range files {
		data, path, err := h.saveUpload(fh)
		if err != nil {
			log.Printf("[UPLOAD] failed to save %s: %v", fh.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded image"})
			return
		}
		inputs = append(inputs, domain.ImageInput{Filename: fh.Filename, Data: data})
		saved = append(saved, path)
	}

	record := h.extraction.ExtractProduct(c.Request.Context(), inputs)
	info := h.commerce.FindAll(c.Request.Context(), record.ProductName, record.Manufacturer)

	product := productFromExtraction(record)
	product.PriceInfo = info.PriceInfo
	product.PriceTaxExcluded = info.PriceTaxExcluded
	product.ProductURL = info.ProductURL
	product.ImagePath = saved[0]
	product.ImagePaths = saved

	id, err := h.products.Add(c.Request.Context(), product)
	if err != nil {
		log.Printf("[UPLOAD] failed to persist product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save product"})
		return
	}
	product.ID = id

	for i, path := range saved {
		img := &domain.ProductImage{
			ProductID:    id,
			ImagePath:    path,
			IsPrimary:    i == 0,
			DisplayOrder: i,
		}
		if _, err := h.products.AddImage(c.Request.Context(), img); err != nil {
			log.Printf("[UPLOAD] failed to record image %s: %v", path, err)
		}
	}

	c.JSON(http.StatusCreated, product)
}

// ImportProduct creates a product from a JSON body, without images.
func (h *Handler) ImportProduct(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}

	product.Category = usecase.NormalizeCategory(string(product.Category), product.ProductName)
	applyUnknownDefaults(&product)

	id, err := h.products.Add(c.Request.Context(), &product)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save product"})
		return
	}
	product.ID = id
	c.JSON(http.StatusCreated, product)
}

// ListProducts returns all stored products.
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct returns one product by id.
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct replaces the mutable fields of an existing product.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	product.ID = id
	product.Category = usecase.NormalizeCategory(string(product.Category), product.ProductName)

	if err := h.products.Update(c.Request.Context(), &product); err != nil {
		h.writeRepoError(c, err)
		return
	}

	updated, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProduct removes a product, its image rows and the stored files.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	images, err := h.products.ListImages(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.writeRepoError(c, err)
		return
	}

	for _, img := range images {
		if err := os.Remove(img.ImagePath); err != nil && !os.IsNotExist(err) {
			log.Printf("[PRODUCT] failed to remove image file %s: %v", img.ImagePath, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// ListProductsByCategory returns the products in one category.
func (h *Handler) ListProductsByCategory(c *gin.Context) {
	category, ok := domain.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	products, err := h.products.ListByCategory(c.Request.Context(), category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "products": products, "count": len(products)})
}

// ListCategories returns the closed category set.
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": domain.Categories})
}

// AddProductImages attaches additional photos to an existing product.
func (h *Handler) AddProductImages(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.products.GetByID(c.Request.Context(), id); err != nil {
		h.writeRepoError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image files provided"})
		return
	}

	existing, err := h.products.ListImages(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add images"})
		return
	}
	order := len(existing)

	var added []domain.ProductImage
	for _, fh := range files {
		_, path, err := h.saveUpload(fh)
		if err != nil {
			log.Printf("[IMAGE] failed to save %s: %v", fh.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded image"})
			return
		}
		img := domain.ProductImage{
			ProductID:    id,
			ImagePath:    path,
			IsPrimary:    order == 0,
			DisplayOrder: order,
		}
		imgID, err := h.products.AddImage(c.Request.Context(), &img)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add images"})
			return
		}
		img.ID = imgID
		added = append(added, img)
		order++
	}

	c.JSON(http.StatusCreated, gin.H{"images": added})
}

// ListProductImages returns a product's images in display order.
func (h *Handler) ListProductImages(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	images, err := h.products.ListImages(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list images"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images, "count": len(images)})
}

// DeleteProductImage removes one stored image and its file.
func (h *Handler) DeleteProductImage(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.pathID(c, "imageID")
	if !ok {
		return
	}

	images, err := h.products.ListImages(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete image"})
		return
	}
	var path string
	for _, img := range images {
		if img.ID == imageID {
			path = img.ImagePath
			break
		}
	}
	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	if err := h.products.DeleteImage(c.Request.Context(), imageID); err != nil {
		h.writeRepoError(c, err)
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[IMAGE] failed to remove image file %s: %v", path, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

// ReorderProductImages rewrites the display order of a product's images.
func (h *Handler) ReorderProductImages(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		ImageIDs []int64 `json:"image_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_ids is required"})
		return
	}

	if err := h.products.ReorderImages(c.Request.Context(), id, req.ImageIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder images"})
		return
	}

	images, err := h.products.ListImages(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder images"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

// saveUpload writes one uploaded file under the upload directory with a
// collision-proof name and returns the file bytes plus the stored path.
func (h *Handler) saveUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(h.uploadDir, uuid.New().String()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, "", err
	}
	return data, path, nil
}

func (h *Handler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeRepoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
	default:
		log.Printf("[PRODUCT] repository error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func productFromExtraction(r domain.RawExtraction) *domain.Product {
	category, _ := domain.ParseCategory(r.Category)
	return &domain.Product{
		ProductName:  r.ProductName,
		Manufacturer: r.Manufacturer,
		Seller:       r.Seller,
		Volume:       r.Volume,
		Ingredients:  r.Ingredients,
		Appeals:      r.Appeals,
		Nutrition:    r.Nutrition,
		Category:     category,
	}
}

func applyUnknownDefaults(p *domain.Product) {
	if p.ProductName == "" {
		p.ProductName = domain.UnknownProductName
	}
	if p.Manufacturer == "" {
		p.Manufacturer = domain.UnknownManufacturer
	}
	if p.Volume == "" {
		p.Volume = domain.UnknownVolume
	}
}
