package controllers

import (
	"log"
	"net/http"
	"strings"

	"debatehub/config"
	"debatehub/db"
	"debatehub/middlewares"
	"debatehub/models"
	"debatehub/structs"
	"debatehub/utils"

	"github.com/gin-gonic/gin"
)

var tokenExpiryMinutes = 7 * 24 * 60

// InitAuthController sets the token lifetime from config.
func InitAuthController(cfg *config.Config) {
	if cfg.JWT.Expiry > 0 {
		tokenExpiryMinutes = cfg.JWT.Expiry
	}
}

func setSessionCookie(c *gin.Context, token string) {
	c.SetCookie("token", token, tokenExpiryMinutes*60, "/", "", false, true)
}

func SignUp(c *gin.Context) {
	var request structs.SignUpRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	name := strings.TrimSpace(request.Name)
	if len(name) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name must be at least 2 characters"})
		return
	}
	if len(request.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	hashed, err := utils.HashPassword(request.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating account"})
		return
	}

	user := &models.User{Name: name, Email: request.Email, Password: hashed}
	if err := db.Users.CreateUser(c.Request.Context(), user); err != nil {
		if err == db.ErrDuplicateEmail {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
			return
		}
		log.Printf("Signup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating account"})
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Name, user.Email, tokenExpiryMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating account"})
		return
	}
	setSessionCookie(c, token)

	log.Printf("User created: %s (%s)", user.Name, user.Email)
	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID.Hex(),
		"name":  user.Name,
		"email": user.Email,
		"token": token,
	})
}

func Login(c *gin.Context) {
	var request structs.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	user, err := db.Users.UserByEmail(c.Request.Context(), request.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}
	if !utils.CheckPasswordHash(request.Password, user.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Name, user.Email, tokenExpiryMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	setSessionCookie(c, token)

	log.Printf("User logged in: %s (%s)", user.Name, user.Email)
	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID.Hex(),
		"name":  user.Name,
		"email": user.Email,
		"token": token,
	})
}

func Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func CurrentUser(c *gin.Context) {
	userID := c.GetString(middlewares.ContextUserID)
	user, err := db.Users.UserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID.Hex(),
		"name":  user.Name,
		"email": user.Email,
	})
}
