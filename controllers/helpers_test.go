package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fibernet/config"
	"fibernet/database"
	"fibernet/routes"
	"fibernet/utils"
)

var testDBCounter int64

// setupServer boots a router against a fresh in-memory database. The raw
// SQL handle is pointed at the same connection pool so the reporting
// queries see the rows the ORM writes.
func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = config.Config{
		DBDriver:       "sqlite",
		JWTSecret:      "test_secret",
		JWTExpiryHours: 24,
		Environment:    "test",
	}

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	database.DB = db

	sqlDB, err := db.DB()
	require.NoError(t, err)
	database.SQLDB = sqlDB
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations())

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

func createCompany(t *testing.T, name string) database.Company {
	t.Helper()
	company := database.Company{Name: name}
	require.NoError(t, database.DB.Create(&company).Error)
	return company
}

func createUser(t *testing.T, username, role string, companyID *uint) database.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := database.User{Username: username, PasswordHash: hash, Role: role, CompanyID: companyID}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

func tokenFor(t *testing.T, user database.User) string {
	t.Helper()
	token, err := utils.GenerateJWT(user.ID, user.Username, user.Role, user.CompanyID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return token
}

func createTelecomCenter(t *testing.T, name string, companyID *uint) database.TelecomCenter {
	t.Helper()
	center := database.TelecomCenter{Name: name, CompanyID: companyID}
	require.NoError(t, database.DB.Create(&center).Error)
	return center
}

func createFAT(t *testing.T, number string, centerID uint, companyID *uint, splitter string) database.FAT {
	t.Helper()
	fat := database.FAT{
		FATNumber:       number,
		TelecomCenterID: centerID,
		CompanyID:       companyID,
		Latitude:        35.7,
		Longitude:       51.4,
		Address:         "Test street",
		SplitterType:    splitter,
	}
	require.NoError(t, database.DB.Create(&fat).Error)
	return fat
}

func createSubscriber(t *testing.T, name, mobile string) database.Subscriber {
	t.Helper()
	subscriber := database.Subscriber{FullName: name, MobileNumber: mobile}
	require.NoError(t, database.DB.Create(&subscriber).Error)
	return subscriber
}

func createSubscription(t *testing.T, subscriberID, fatID uint, port int, virtual string) database.Subscription {
	t.Helper()
	sub := database.Subscription{
		SubscriberID:            subscriberID,
		FATID:                   fatID,
		PortNumber:              port,
		VirtualSubscriberNumber: virtual,
		InstallationStatus:      database.InstallationStatusPending,
	}
	require.NoError(t, database.DB.Create(&sub).Error)
	return sub
}

func createTicket(t *testing.T, subscriptionID uint, companyID *uint, createdBy uint) database.SupportTicket {
	t.Helper()
	ticket := database.SupportTicket{
		SubscriptionID:   subscriptionID,
		CompanyID:        companyID,
		Title:            "No signal",
		IssueDescription: "Subscriber reports total outage",
		Status:           database.TicketStatusOpen,
		CreatedByUserID:  createdBy,
	}
	require.NoError(t, database.DB.Create(&ticket).Error)
	return ticket
}

// doJSON performs a request with an optional bearer token and JSON body
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	body := decodeBody(t, w)
	if body["data"] == nil {
		return nil
	}
	list, ok := body["data"].([]interface{})
	require.True(t, ok, "expected data to be a list, got %T", body["data"])
	return list
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
