package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// Base directory for storing uploaded files
	uploadBaseDir = "uploads"
	// Base URL for serving files
	baseURL = "/uploads"
	// Maximum file size (10MB)
	maxFileSize = 10 * 1024 * 1024
	// Profile photos are normalized to this square size
	profilePhotoSize = 400
)

// Allowed image extensions for profile photos and supporting documents
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// cleanFilename removes any potentially dangerous characters from the filename
func cleanFilename(filename string) string {
	filename = filepath.Base(filename)
	reg := regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	return reg.ReplaceAllString(filename, "")
}

// IsValidImageFile checks if the uploaded file is a valid image
func IsValidImageFile(file *multipart.FileHeader) bool {
	if file.Size > maxFileSize {
		return false
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	return allowedImageExts[ext]
}

// SaveProfilePhoto stores an agent profile photo, resized to a square
// thumbnail, and returns the URL it is served from.
func SaveProfilePhoto(file *multipart.FileHeader) (string, error) {
	if !IsValidImageFile(file) {
		return "", fmt.Errorf("unsupported image file")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fill(img, profilePhotoSize, profilePhotoSize, imaging.Center, imaging.Lanczos)

	dir := filepath.Join(uploadBaseDir, "profiles")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename := uuid.New().String() + "_" + cleanFilename(file.Filename)
	// imaging picks the encoder from the extension; normalize to jpg
	filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
	fullPath := filepath.Join(dir, filename)

	if err := imaging.Save(thumb, fullPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return baseURL + "/profiles/" + filename, nil
}
