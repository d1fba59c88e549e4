package userControllers

import (
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sanjayhona/agrimart-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var mobileRegex = regexp.MustCompile(`^\d{10}$`)

type SignupInput struct {
	Name     string         `json:"name" binding:"required"`
	Mobile   string         `json:"mobile" binding:"required"`
	Password string         `json:"password" binding:"required"`
	Language string         `json:"language"`
	Address  models.Address `json:"address"`
}

type SigninInput struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserInput struct {
	Name     *string         `json:"name"`
	Password *string         `json:"password"`
	Language *string         `json:"language"`
	Address  *models.Address `json:"address"`
}

// strongPassword requires 8+ chars with upper, lower, digit and special.
func strongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

func issueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// POST /auth/signup
func Signup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input SignupInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
			return
		}

		if !mobileRegex.MatchString(input.Mobile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mobile number format"})
			return
		}
		if !strongPassword(input.Password) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Weak password: Must have at least 8 characters, 1 uppercase, 1 lowercase, 1 number, and 1 special character.",
			})
			return
		}

		var existing models.User
		if err := db.Where("mobile = ?", input.Mobile).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile number already registered"})
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}

		user := models.User{
			ID:       uuid.NewString(),
			Name:     input.Name,
			Mobile:   input.Mobile,
			Password: string(hashed),
			Language: input.Language,
			Address:  input.Address,
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}

		token, err := issueToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"token":   token,
			"user":    gin.H{"id": user.ID, "name": user.Name, "mobile": user.Mobile},
		})
	}
}

// POST /auth/signin
func Signin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input SigninInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile number and password are required"})
			return
		}

		var user models.User
		if err := db.Where("mobile = ?", input.Mobile).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := issueToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   token,
			"user":    gin.H{"id": user.ID, "name": user.Name, "mobile": user.Mobile},
		})
	}
}

// GET /user
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		var user models.User

		if err := db.Preload("Cart.Items").Preload("Orders").First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// PUT /user
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		var user models.User

		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updates := make(map[string]interface{})
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Language != nil {
			updates["language"] = *input.Language
		}
		if input.Password != nil {
			if !strongPassword(*input.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Weak password"})
				return
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			updates["password"] = string(hashed)
		}
		if input.Address != nil {
			updates["street"] = input.Address.Street
			updates["city"] = input.Address.City
			updates["state"] = input.Address.State
			updates["postal_code"] = input.Address.PostalCode
			updates["country"] = input.Address.Country
		}

		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "User profile updated successfully",
			"user": gin.H{"id": user.ID, "name": user.Name, "mobile": user.Mobile}})
	}
}

// GET /admin/users
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		if err := db.
			Select("id", "name", "mobile", "language", "created_at").
			Order("created_at desc").
			Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}

		c.JSON(http.StatusOK, users)
	}
}
