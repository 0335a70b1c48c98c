package handlers

import (
	"log"
	"net/http"
	"strconv"

	"mercato-backend/firebase"
	"mercato-backend/models"
	"mercato-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

// GetStoreProducts lists a store's available products for the storefront.
func (h *ProductHandler) GetStoreProducts(c *gin.Context) {
	storeID := c.Param("id")

	var store models.Store
	if err := h.DB.Where("id = ? AND is_active = ?", storeID, true).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	var products []models.Product
	query := h.DB.Preload("Category").Preload("Images").
		Where("store_id = ? AND is_available = ?", storeID, true)

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}

	if err := query.Order("name").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	var product models.Product

	if err := h.DB.Preload("Category").Preload("Images").
		Where("id = ? AND is_available = ?", id, true).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// ========== Portal Endpoints ==========

func (h *ProductHandler) GetMyProducts(c *gin.Context) {
	storeID, _ := c.Get("store_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Preload("Category").Preload("Images").Where("store_id = ?", storeID)

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}

	var total int64
	query.Model(&models.Product{}).Count(&total)

	var products []models.Product
	if err := query.Order("name").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// CreateProduct takes a multipart form so product data and images arrive in
// one request. The first image becomes the primary one.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	sID := storeID.(uuid.UUID)

	var product models.Product
	product.StoreID = sID
	product.Name = c.PostForm("name")
	product.Description = c.PostForm("description")

	if product.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product name is required"})
		return
	}

	price, err := strconv.ParseFloat(c.PostForm("price"), 64)
	if err != nil || price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be a positive number"})
		return
	}
	product.Price = price

	product.Stock, _ = strconv.Atoi(c.PostForm("stock"))
	product.IsAvailable = c.PostForm("is_available") != "false"
	product.IsVegan = c.PostForm("is_vegan") == "true"
	product.IsGlutenFree = c.PostForm("is_gluten_free") == "true"

	categoryID, err := uuid.Parse(c.PostForm("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	// The category must belong to this store
	if err := h.DB.First(&models.Category{}, "id = ? AND store_id = ?", categoryID, sID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	product.CategoryID = categoryID

	product.ID = uuid.New()

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return
	}

	files := form.File["images"]
	imageURLs := form.Value["image_urls"]
	if len(files) == 0 && len(imageURLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one image is required"})
		return
	}

	if err := h.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	var productImages []models.ProductImage
	for i, fileHeader := range files {
		if err := utils.ValidateFileUpload(fileHeader); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image"})
			return
		}

		imageURL, err := h.Storage.UploadProductImage(
			file,
			fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"),
		)
		file.Close()

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Image upload failed"})
			return
		}

		productImages = append(productImages, models.ProductImage{
			ProductID: product.ID,
			ImageURL:  imageURL,
			IsPrimary: i == 0,
		})
	}

	// Remote images are fetched and re-hosted so we never serve third-party URLs
	for _, remoteURL := range imageURLs {
		imageURL, err := h.Storage.DownloadAndUploadImage(remoteURL, product.ID.String())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not import image from URL"})
			return
		}
		productImages = append(productImages, models.ProductImage{
			ProductID: product.ID,
			ImageURL:  imageURL,
			IsPrimary: len(productImages) == 0,
		})
	}

	if err := h.DB.Create(&productImages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save product images"})
		return
	}

	h.DB.Preload("Category").Preload("Images").First(&product, product.ID)
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Preload("Images").Where("id = ? AND store_id = ?", id, storeID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if name := c.PostForm("name"); name != "" {
		product.Name = name
	}
	if description, ok := c.GetPostForm("description"); ok {
		product.Description = description
	}
	if price := c.PostForm("price"); price != "" {
		parsed, err := strconv.ParseFloat(price, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be a positive number"})
			return
		}
		product.Price = parsed
	}
	if stock := c.PostForm("stock"); stock != "" {
		product.Stock, _ = strconv.Atoi(stock)
	}
	if avail, ok := c.GetPostForm("is_available"); ok {
		product.IsAvailable = avail == "true"
	}
	if vegan, ok := c.GetPostForm("is_vegan"); ok {
		product.IsVegan = vegan == "true"
	}
	if glutenFree, ok := c.GetPostForm("is_gluten_free"); ok {
		product.IsGlutenFree = glutenFree == "true"
	}

	if categoryID := c.PostForm("category_id"); categoryID != "" {
		newCategoryID, err := uuid.Parse(categoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		if err := h.DB.First(&models.Category{}, "id = ? AND store_id = ?", newCategoryID, storeID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		product.CategoryID = newCategoryID
	}

	form, err := c.MultipartForm()
	if err == nil {
		files := form.File["images"]
		imagesToDelete := form.Value["delete_images"]

		for _, imageID := range imagesToDelete {
			var productImage models.ProductImage
			if err := h.DB.Where("id = ? AND product_id = ?", imageID, product.ID).First(&productImage).Error; err == nil {
				objectPath, err := utils.ExtractObjectPath(productImage.ImageURL)
				if err == nil && objectPath != "" {
					if err := h.Storage.DeleteFile(objectPath); err != nil {
						log.Println("Failed to delete image from storage:", err)
					}
				}
				h.DB.Delete(&productImage)
			}
		}

		if len(files) > 0 {
			var newProductImages []models.ProductImage
			for i, fileHeader := range files {
				if err := utils.ValidateFileUpload(fileHeader); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}

				file, err := fileHeader.Open()
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image"})
					return
				}

				imageURL, err := h.Storage.UploadProductImage(
					file,
					fileHeader.Filename,
					fileHeader.Header.Get("Content-Type"),
				)
				file.Close()

				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Image upload failed"})
					return
				}

				newProductImages = append(newProductImages, models.ProductImage{
					ProductID: product.ID,
					ImageURL:  imageURL,
					IsPrimary: len(product.Images) == 0 && i == 0,
				})
			}

			if err := h.DB.Create(&newProductImages).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save product images"})
				return
			}
		}
	}

	if primaryImageID := c.PostForm("primary_image_id"); primaryImageID != "" {
		h.DB.Model(&models.ProductImage{}).
			Where("product_id = ?", product.ID).
			Update("is_primary", false)

		h.DB.Model(&models.ProductImage{}).
			Where("id = ? AND product_id = ?", primaryImageID, product.ID).
			Update("is_primary", true)
	}

	if err := h.DB.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	h.DB.Preload("Category").Preload("Images").First(&product, product.ID)
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	storeID, _ := c.Get("store_id")
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Preload("Images").Where("id = ? AND store_id = ?", id, storeID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	for _, productImage := range product.Images {
		// Keep images still referenced by order history
		var orderImageCount int64
		h.DB.Model(&models.OrderItem{}).
			Where("image_url = ?", productImage.ImageURL).
			Count(&orderImageCount)

		if orderImageCount > 0 {
			log.Printf("Image %s is referenced in %d order(s) - preserving in storage",
				productImage.ImageURL, orderImageCount)
		} else {
			objectPath, err := utils.ExtractObjectPath(productImage.ImageURL)
			if err == nil && objectPath != "" {
				if err := h.Storage.DeleteFile(objectPath); err != nil {
					log.Printf("Failed to delete image %s from storage: %v", productImage.ImageURL, err)
				}
			}
		}

		if err := h.DB.Delete(&productImage).Error; err != nil {
			log.Printf("Failed to delete product image record %s: %v", productImage.ID, err)
		}
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
