package fields

import (
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	tmp, err := os.CreateTemp("", "timerd-test-*.db")
	if err != nil {
		t.Fatalf("temp db: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmp.Name()) })
	tmp.Close()

	db, err := gorm.Open(sqlite.Open(tmp.Name()), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &TimerRecord{}, &FiringEvent{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestUserPassword(t *testing.T) {
	u := User{Username: "Someone", Password: "Me@Passw0rd!"}
	u.SanitizeName()
	if u.Username != "someone" {
		t.Errorf("SanitizeName: %q", u.Username)
	}
	if err := u.HashPassword(); err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if u.Password == "Me@Passw0rd!" {
		t.Error("password was not hashed")
	}
	if err := u.VerifyPassword("Me@Passw0rd!"); err != nil {
		t.Errorf("VerifyPassword: %v", err)
	}
	if err := u.VerifyPassword("wrong"); err == nil {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestGetUserByUsername(t *testing.T) {
	db := testDB(t)
	u := User{Username: "alice", Password: "Me@Passw0rd!"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	got, err := GetUserByUsername("Alice", db)
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q", got.Username)
	}

	if _, err := GetUserByUsername("nobody", db); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestGetTimerByUUID(t *testing.T) {
	db := testDB(t)
	record := TimerRecord{UUID: "uuid-1", DurationMicros: 1000, State: StateCreated}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	got, err := GetTimerByUUID("uuid-1", db)
	if err != nil {
		t.Fatalf("GetTimerByUUID: %v", err)
	}
	if got.DurationMicros != 1000 || got.State != StateCreated {
		t.Errorf("record = %+v", got)
	}

	if _, err := GetTimerByUUID("missing", db); err == nil {
		t.Error("expected error for unknown uuid")
	}
}
