package controllers

import (
	"errors"
	"strconv"
	"strings"

	"pomoc-backend/apperrors"
	"pomoc-backend/middlewares"
	"pomoc-backend/models"
	"pomoc-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

type registerInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var in registerInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	// Trim everything except the password; whitespace there is the user's.
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)

	var existing models.User
	if err := ac.DB.Where("email = ?", in.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperrors.PersistenceError{Op: "lookup user by email", Err: err}
	}

	user := models.User{
		Email: in.Email,
		Name:  in.Name,
		Phone: in.Phone,
		Role:  models.RoleUser,
	}
	user.SetPassword(in.Password)
	if err := ac.DB.Create(&user).Error; err != nil {
		return &apperrors.PersistenceError{Op: "create user", Err: err}
	}

	token, err := middlewares.GenerateJWT(strconv.FormatUint(uint64(user.ID), 10), user.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{"token": token, "user": user})
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var in loginInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	if err := ac.DB.Where("email = ?", in.Email).First(&user).Error; err != nil {
		// Same message for unknown email and bad password.
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err := user.ComparePassword(in.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := middlewares.GenerateJWT(strconv.FormatUint(uint64(user.ID), 10), user.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{"token": token, "user": user})
}

// Me returns the authenticated caller's profile.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	subject, _ := c.Locals("userID").(string)
	userID, ok := utils.NormalizeID(subject)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token subject")
	}

	var user models.User
	if err := ac.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return &apperrors.PersistenceError{Op: "load user", Err: err}
	}
	return c.JSON(fiber.Map{"user": user})
}
