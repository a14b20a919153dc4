package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibernet/database"
)

func TestTelecomCenterGlobalPartition(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	beta := createCompany(t, "Beta Networks")
	createTelecomCenter(t, "Shared Exchange", nil)
	createTelecomCenter(t, "Acme North", &acme.ID)
	createTelecomCenter(t, "Beta South", &beta.ID)

	acmeToken := tokenFor(t, createUser(t, "acme_admin", "company_admin", &acme.ID))

	w := doJSON(t, r, http.MethodGet, "/api/telecom-centers", acmeToken, nil)
	requireStatus(t, w, http.StatusOK)

	names := []string{}
	for _, item := range dataList(t, w) {
		names = append(names, item.(map[string]interface{})["name"].(string))
	}
	// Own centers plus the global partition, never the other tenant's.
	assert.ElementsMatch(t, []string{"Shared Exchange", "Acme North"}, names)
}

func TestCreateTelecomCenterForcesTenant(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	beta := createCompany(t, "Beta Networks")
	token := tokenFor(t, createUser(t, "acme_admin", "company_admin", &acme.ID))

	// The payload's company id is ignored for company admins.
	w := doJSON(t, r, http.MethodPost, "/api/telecom-centers", token, map[string]interface{}{
		"name": "Sneaky", "company_id": beta.ID,
	})
	requireStatus(t, w, http.StatusCreated)

	var center database.TelecomCenter
	require.NoError(t, database.DB.Where("name = ?", "Sneaky").First(&center).Error)
	require.NotNil(t, center.CompanyID)
	assert.Equal(t, acme.ID, *center.CompanyID)
}

func TestSuperAdminCreatesGlobalCenter(t *testing.T) {
	r := setupServer(t)
	super := createUser(t, "root", "super_admin", nil)

	w := doJSON(t, r, http.MethodPost, "/api/telecom-centers", tokenFor(t, super), map[string]interface{}{
		"name": "Backbone",
	})
	requireStatus(t, w, http.StatusCreated)

	var center database.TelecomCenter
	require.NoError(t, database.DB.Where("name = ?", "Backbone").First(&center).Error)
	assert.Nil(t, center.CompanyID)
}

func TestGlobalCenterNameUniqueWithinPartition(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	superToken := tokenFor(t, createUser(t, "root", "super_admin", nil))

	w := doJSON(t, r, http.MethodPost, "/api/telecom-centers", superToken, map[string]string{"name": "Backbone"})
	requireStatus(t, w, http.StatusCreated)

	// The unique index does not catch two NULL company ids, so the handler
	// guards the global partition itself.
	w = doJSON(t, r, http.MethodPost, "/api/telecom-centers", superToken, map[string]string{"name": "Backbone"})
	requireStatus(t, w, http.StatusConflict)

	// Renaming another global center onto the taken name is also blocked.
	w = doJSON(t, r, http.MethodPost, "/api/telecom-centers", superToken, map[string]string{"name": "Core"})
	requireStatus(t, w, http.StatusCreated)
	var core database.TelecomCenter
	require.NoError(t, database.DB.Where("name = ?", "Core").First(&core).Error)
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/telecom-centers/%d", core.ID), superToken, map[string]string{"name": "Backbone"})
	requireStatus(t, w, http.StatusConflict)

	// A company-scoped center may still reuse the name.
	acmeToken := tokenFor(t, createUser(t, "acme_admin", "company_admin", &acme.ID))
	w = doJSON(t, r, http.MethodPost, "/api/telecom-centers", acmeToken, map[string]string{"name": "Backbone"})
	requireStatus(t, w, http.StatusCreated)
}

func TestTelecomCenterModifyBoundaries(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	beta := createCompany(t, "Beta Networks")
	global := createTelecomCenter(t, "Shared Exchange", nil)
	foreign := createTelecomCenter(t, "Beta South", &beta.ID)
	token := tokenFor(t, createUser(t, "acme_admin", "company_admin", &acme.ID))

	// The global center is visible, so the denial is explicit.
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/telecom-centers/%d", global.ID), token, map[string]string{"name": "Hijacked"})
	requireStatus(t, w, http.StatusForbidden)

	// The foreign center is not even visible.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/telecom-centers/%d", foreign.ID), token, map[string]string{"name": "Hijacked"})
	requireStatus(t, w, http.StatusNotFound)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/telecom-centers/%d", global.ID), token, nil)
	requireStatus(t, w, http.StatusForbidden)
}

func TestDuplicateTelecomCenterName(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	createTelecomCenter(t, "North", &acme.ID)
	token := tokenFor(t, createUser(t, "acme_admin", "company_admin", &acme.ID))

	w := doJSON(t, r, http.MethodPost, "/api/telecom-centers", token, map[string]string{"name": "North"})
	requireStatus(t, w, http.StatusConflict)
}

func TestDeleteTelecomCenterCascades(t *testing.T) {
	r := setupServer(t)
	super := createUser(t, "root", "super_admin", nil)
	acme := createCompany(t, "Acme Fiber")
	center := createTelecomCenter(t, "North", &acme.ID)
	fat := createFAT(t, "FAT-001", center.ID, &acme.ID, "1:8")
	subscriber := createSubscriber(t, "Jane Doe", "09123456789")
	sub := createSubscription(t, subscriber.ID, fat.ID, 1, "V-1000")
	createTicket(t, sub.ID, &acme.ID, super.ID)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/telecom-centers/%d", center.ID), tokenFor(t, super), nil)
	requireStatus(t, w, http.StatusOK)

	var count int64
	database.DB.Model(&database.FAT{}).Count(&count)
	assert.Zero(t, count)
	database.DB.Model(&database.Subscription{}).Count(&count)
	assert.Zero(t, count)
	database.DB.Model(&database.SupportTicket{}).Count(&count)
	assert.Zero(t, count)
}
