package controllers

import (
	"errors"
	"path/filepath"
	"strconv"

	"pomoc-backend/apperrors"
	"pomoc-backend/middlewares"
	"pomoc-backend/models"
	"pomoc-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestController struct {
	DB         *gorm.DB
	UploadsDir string
}

func NewRequestController(db *gorm.DB, uploadsDir string) *RequestController {
	return &RequestController{DB: db, UploadsDir: uploadsDir}
}

type createRequestInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Address      string   `json:"address"`
	ContactPhone string   `json:"contact_phone"`
	// Untyped on purpose: callers send numbers, numeric strings, or whole
	// user objects here. NormalizeID decides; anything unusable means
	// "no owner", never owner 0.
	UserID any `json:"user_id"`
}

func (rc *RequestController) Create(c *fiber.Ctx) error {
	var in createRequestInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.TrimStringsPtrDTO(&in)
	if in.Title == "" {
		return apperrors.Validation("title is required")
	}

	request := models.HelpRequest{
		Title:        in.Title,
		Description:  in.Description,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Address:      in.Address,
		ContactPhone: in.ContactPhone,
		Status:       models.RequestOpen,
	}
	if ownerID, ok := utils.NormalizeID(in.UserID); ok {
		request.OwnerID = &ownerID
	} else if subject, _ := c.Locals("userID").(string); subject != "" {
		// Fall back to the authenticated caller, if any.
		if ownerID, ok := utils.NormalizeID(subject); ok {
			request.OwnerID = &ownerID
		}
	}

	if err := rc.DB.Create(&request).Error; err != nil {
		return &apperrors.PersistenceError{Op: "create help request", Err: err}
	}

	// Read-after-write: return the stored row, not the pre-insert struct,
	// so defaults and timestamps come from the store.
	var out models.HelpRequest
	if err := rc.DB.First(&out, request.ID).Error; err != nil {
		return &apperrors.PersistenceError{Op: "read back help request", Err: err}
	}
	return c.JSON(out)
}

func (rc *RequestController) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.Validation("invalid request id")
	}

	var request models.HelpRequest
	if err := rc.DB.Preload("Attachments").First(&request, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return &apperrors.PersistenceError{Op: "load help request", Err: err}
	}
	return c.JSON(request)
}

// AdminList returns all requests, newest first.
func (rc *RequestController) AdminList(c *fiber.Ctx) error {
	var requests []models.HelpRequest
	if err := rc.DB.Order("created_at DESC").Find(&requests).Error; err != nil {
		return &apperrors.PersistenceError{Op: "list help requests", Err: err}
	}
	return c.JSON(requests)
}

type updateRequestInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Status       *string `json:"status" validate:"omitempty,oneof=open in_progress closed cancelled"`
	Address      *string `json:"address"`
	ContactPhone *string `json:"contact_phone"`
}

// AdminUpdate patches the fields present in the body; absent fields are
// left alone.
func (rc *RequestController) AdminUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.Validation("invalid request id")
	}

	var in updateRequestInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.TrimStringsPtrDTO(&in)
	if in.Title != nil && *in.Title == "" {
		return apperrors.Validation("title must not be empty")
	}

	updates := utils.UpdatesFromPtrDTO(&in)
	if len(updates) == 0 {
		return apperrors.Validation("no fields to update")
	}

	res := rc.DB.Model(&models.HelpRequest{}).Where("id = ?", uint(id)).Updates(updates)
	if res.Error != nil {
		return &apperrors.PersistenceError{Op: "update help request", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	var out models.HelpRequest
	if err := rc.DB.First(&out, uint(id)).Error; err != nil {
		return &apperrors.PersistenceError{Op: "read back help request", Err: err}
	}
	return c.JSON(out)
}

// Delete removes a request. Attachments go with it; payments that reference
// it keep their rows with the reference nulled, so the delete never blocks
// on payment history.
func (rc *RequestController) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.Validation("invalid request id")
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payment{}).
			Where("request_id = ?", uint(id)).
			Update("request_id", nil).Error; err != nil {
			return &apperrors.PersistenceError{Op: "detach payments", Err: err}
		}
		if err := tx.Where("request_id = ?", uint(id)).Delete(&models.Attachment{}).Error; err != nil {
			return &apperrors.PersistenceError{Op: "delete attachments", Err: err}
		}
		res := tx.Delete(&models.HelpRequest{}, uint(id))
		if res.Error != nil {
			return &apperrors.PersistenceError{Op: "delete help request", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// UploadAttachment stores one multipart file under the uploads dir and
// records it against the request. Files are served statically from /uploads.
func (rc *RequestController) UploadAttachment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.Validation("invalid request id")
	}

	var request models.HelpRequest
	if err := rc.DB.First(&request, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return &apperrors.PersistenceError{Op: "load help request", Err: err}
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperrors.Validation("file is required")
	}

	// Never trust the client filename on disk.
	name := uuid.NewString() + filepath.Ext(file.Filename)
	if err := c.SaveFile(file, filepath.Join(rc.UploadsDir, name)); err != nil {
		return &apperrors.PersistenceError{Op: "store attachment file", Err: err}
	}

	attachment := models.Attachment{
		RequestID: request.ID,
		URL:       "/uploads/" + name,
		Filename:  file.Filename,
	}
	if err := rc.DB.Create(&attachment).Error; err != nil {
		return &apperrors.PersistenceError{Op: "store attachment row", Err: err}
	}
	return c.JSON(attachment)
}
