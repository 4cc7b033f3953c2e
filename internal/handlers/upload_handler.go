package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const maxReceiptSize = 10 << 20

var receiptExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".heic": true,
}

// receiptFilename keeps a readable slug of the original name and makes it
// unique with a UUID.
func receiptFilename(original string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(original))
	if !receiptExtensions[ext] {
		return "", false
	}
	base := slug.Make(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))
	if base == "" {
		base = "receipt"
	}
	if len(base) > 40 {
		base = strings.Trim(base[:40], "-")
	}
	return fmt.Sprintf("%s-%s%s", base, uuid.New().String(), ext), true
}

// UploadReceipt handles POST /api/uploads/receipts
// It saves the receipt image under the upload dir and returns its public URL,
// which the student then sends as receipt_image_url.
func (h *Handlers) UploadReceipt(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > maxReceiptSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 10MB)"})
		return
	}

	// 2. Generate a safe unique filename
	name, ok := receiptFilename(file.Filename)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are accepted"})
		return
	}

	// 3. Create the upload directory if it doesn't exist
	if err := os.MkdirAll(h.Uploads.Dir, 0o755); err != nil {
		log.Printf("ERROR: create upload dir: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	// 4. Save the file
	if err := c.SaveUploadedFile(file, filepath.Join(h.Uploads.Dir, name)); err != nil {
		log.Printf("ERROR: save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	// 5. Return the public URL
	c.JSON(http.StatusCreated, gin.H{
		"url": fmt.Sprintf("%s/uploads/%s", h.Uploads.BaseURL, name),
	})
}
