package fields

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User contains the timerd user table. Kept simple: username, credentials
// and the TOTP secret used for one-time sign-in codes.
type User struct {
	gorm.Model
	Username  string `json:"username" gorm:"index:idx_username,unique" binding:"required"`
	Password  string `json:"password,omitempty" binding:"required,min=8,max=64"`
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	OTPSecret string `json:"-"`
	DeviceID  string `json:"device_id"`
}

// GetUserByUsername retrieves a user from the database by username.
func GetUserByUsername(username string, db *gorm.DB) (User, error) {
	var user User
	if result := db.First(&user, "username = ?", strings.ToLower(username)); errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return user, errors.New("user not found")
	}
	return user, nil
}

// SanitizeName lowercases the username so lookups stay case-insensitive.
func (u *User) SanitizeName() {
	u.Username = strings.ToLower(u.Username)
}

// HashPassword replaces the plaintext password with its bcrypt hash.
func (u *User) HashPassword() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), 8)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}
