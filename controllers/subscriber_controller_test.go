package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSubscriberValidation(t *testing.T) {
	r := setupServer(t)
	token := tokenFor(t, createUser(t, "root", "super_admin", nil))

	cases := []struct {
		name    string
		payload map[string]string
		want    int
	}{
		{"valid", map[string]string{"full_name": "Jane Doe", "mobile_number": "09123456789"}, http.StatusCreated},
		{"valid with national id", map[string]string{"full_name": "John Doe", "mobile_number": "09123456788", "national_id": "0012345678"}, http.StatusCreated},
		{"mobile too short", map[string]string{"full_name": "X", "mobile_number": "0912345678"}, http.StatusBadRequest},
		{"mobile wrong prefix", map[string]string{"full_name": "X", "mobile_number": "08123456789"}, http.StatusBadRequest},
		{"mobile not numeric", map[string]string{"full_name": "X", "mobile_number": "09x23456789"}, http.StatusBadRequest},
		{"national id too short", map[string]string{"full_name": "X", "mobile_number": "09123456787", "national_id": "12345"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/subscribers", token, tc.payload)
			requireStatus(t, w, tc.want)
		})
	}
}

func TestDuplicateSubscriber(t *testing.T) {
	r := setupServer(t)
	token := tokenFor(t, createUser(t, "root", "super_admin", nil))

	w := doJSON(t, r, http.MethodPost, "/api/subscribers", token, map[string]string{
		"full_name": "Jane Doe", "mobile_number": "09123456789", "national_id": "0012345678",
	})
	requireStatus(t, w, http.StatusCreated)

	w = doJSON(t, r, http.MethodPost, "/api/subscribers", token, map[string]string{
		"full_name": "Someone Else", "mobile_number": "09123456789",
	})
	requireStatus(t, w, http.StatusConflict)
	assert.Contains(t, w.Body.String(), "Mobile number")

	w = doJSON(t, r, http.MethodPost, "/api/subscribers", token, map[string]string{
		"full_name": "Someone Else", "mobile_number": "09999999999", "national_id": "0012345678",
	})
	requireStatus(t, w, http.StatusConflict)
	assert.Contains(t, w.Body.String(), "National id")
}

func TestDeleteSubscriberFreesIdentityFields(t *testing.T) {
	r := setupServer(t)
	token := tokenFor(t, createUser(t, "root", "super_admin", nil))
	subscriber := createSubscriber(t, "Jane Doe", "09123456789")

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/subscribers/%d", subscriber.ID), token, nil)
	requireStatus(t, w, http.StatusOK)

	w = doJSON(t, r, http.MethodPost, "/api/subscribers", token, map[string]string{
		"full_name": "Jane Reborn", "mobile_number": "09123456789",
	})
	requireStatus(t, w, http.StatusCreated)
}

func TestSubscriberVisibilityFollowsSubscriptions(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	beta := createCompany(t, "Beta Networks")
	center := createTelecomCenter(t, "Shared Exchange", nil)
	acmeFAT := createFAT(t, "ACME-FAT", center.ID, &acme.ID, "1:8")

	connected := createSubscriber(t, "Jane Doe", "09123456789")
	orphan := createSubscriber(t, "John Doe", "09123456788")
	createSubscription(t, connected.ID, acmeFAT.ID, 1, "V-1000")

	acmeToken := tokenFor(t, createUser(t, "acme_admin", "company_admin", &acme.ID))
	betaToken := tokenFor(t, createUser(t, "beta_admin", "company_admin", &beta.ID))

	// A subscriber is visible to a tenant only through a subscription on
	// one of that tenant's FATs.
	w := doJSON(t, r, http.MethodGet, "/api/subscribers", acmeToken, nil)
	requireStatus(t, w, http.StatusOK)
	list := dataList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Jane Doe", list[0].(map[string]interface{})["full_name"])

	w = doJSON(t, r, http.MethodGet, "/api/subscribers", betaToken, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Empty(t, dataList(t, w))

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/subscribers/%d", connected.ID), betaToken, nil)
	requireStatus(t, w, http.StatusNotFound)
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/subscribers/%d", orphan.ID), acmeToken, nil)
	requireStatus(t, w, http.StatusNotFound)
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/subscribers/%d", connected.ID), acmeToken, nil)
	requireStatus(t, w, http.StatusOK)
}

func TestSubscriberNotDuplicatedAcrossSubscriptions(t *testing.T) {
	r := setupServer(t)
	acme := createCompany(t, "Acme Fiber")
	center := createTelecomCenter(t, "North", &acme.ID)
	fat := createFAT(t, "FAT-001", center.ID, &acme.ID, "1:8")
	subscriber := createSubscriber(t, "Jane Doe", "09123456789")
	createSubscription(t, subscriber.ID, fat.ID, 1, "V-1000")
	createSubscription(t, subscriber.ID, fat.ID, 2, "V-1001")

	token := tokenFor(t, createUser(t, "acme_admin", "company_admin", &acme.ID))
	w := doJSON(t, r, http.MethodGet, "/api/subscribers", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, dataList(t, w), 1)
}
