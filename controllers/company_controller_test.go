package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibernet/database"
)

func TestCreateCompany(t *testing.T) {
	r := setupServer(t)
	super := createUser(t, "root", "super_admin", nil)

	w := doJSON(t, r, http.MethodPost, "/api/companies", tokenFor(t, super), map[string]string{
		"name": "Acme Fiber", "expires_at": "2027-01-01",
	})
	requireStatus(t, w, http.StatusCreated)

	// The tenant namespace is flat: the same name conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/companies", tokenFor(t, super), map[string]string{
		"name": "Acme Fiber",
	})
	requireStatus(t, w, http.StatusConflict)
}

func TestCompanyAdminCannotManageCompanies(t *testing.T) {
	r := setupServer(t)
	company := createCompany(t, "Acme Fiber")
	admin := createUser(t, "acme_admin", "company_admin", &company.ID)
	token := tokenFor(t, admin)

	w := doJSON(t, r, http.MethodPost, "/api/companies", token, map[string]string{"name": "Rogue"})
	requireStatus(t, w, http.StatusForbidden)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/companies/%d", company.ID), token, map[string]string{"name": "Renamed"})
	requireStatus(t, w, http.StatusForbidden)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/companies/%d", company.ID), token, nil)
	requireStatus(t, w, http.StatusForbidden)
}

func TestCompanyTenantIsolation(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	beta := createCompany(t, "Beta Networks")
	acmeAdmin := createUser(t, "acme_admin", "company_admin", &acme.ID)
	token := tokenFor(t, acmeAdmin)

	w := doJSON(t, r, http.MethodGet, "/api/companies", token, nil)
	requireStatus(t, w, http.StatusOK)
	list := dataList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme Fiber", list[0].(map[string]interface{})["name"])

	// A foreign company id looks like a missing row.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/companies/%d", beta.ID), token, nil)
	requireStatus(t, w, http.StatusNotFound)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/companies/%d", acme.ID), token, nil)
	requireStatus(t, w, http.StatusOK)
}

func TestDeleteCompanyCascades(t *testing.T) {
	r := setupServer(t)
	super := createUser(t, "root", "super_admin", nil)
	company := createCompany(t, "Acme Fiber")
	staff := createUser(t, "acme_admin", "company_admin", &company.ID)
	center := createTelecomCenter(t, "North", &company.ID)
	fat := createFAT(t, "FAT-001", center.ID, &company.ID, "1:8")
	subscriber := createSubscriber(t, "Jane Doe", "09123456789")
	sub := createSubscription(t, subscriber.ID, fat.ID, 1, "V-1000")
	createTicket(t, sub.ID, &company.ID, staff.ID)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/companies/%d", company.ID), tokenFor(t, super), nil)
	requireStatus(t, w, http.StatusOK)

	var count int64
	database.DB.Model(&database.Company{}).Count(&count)
	assert.Zero(t, count)
	database.DB.Model(&database.TelecomCenter{}).Count(&count)
	assert.Zero(t, count)
	database.DB.Model(&database.FAT{}).Count(&count)
	assert.Zero(t, count)
	database.DB.Model(&database.Subscription{}).Count(&count)
	assert.Zero(t, count)
	database.DB.Model(&database.SupportTicket{}).Count(&count)
	assert.Zero(t, count)

	// Staff accounts survive the cascade but are detached from the tenant.
	var detached database.User
	require.NoError(t, database.DB.First(&detached, staff.ID).Error)
	assert.Nil(t, detached.CompanyID)

	// Subscribers are a global registry and are not touched.
	database.DB.Model(&database.Subscriber{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
