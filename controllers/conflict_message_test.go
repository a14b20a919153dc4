package controllers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fibernet/database"
)

func setupMessageDB(t *testing.T, name string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.Subscriber{}, &database.Subscription{}))
	database.DB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

func TestDuplicateSubscriptionMessageAttribution(t *testing.T) {
	setupMessageDB(t, "conflictmsg_subscription")
	subscriber := database.Subscriber{FullName: "Jane Doe", MobileNumber: "09123456789"}
	require.NoError(t, database.DB.Create(&subscriber).Error)
	require.NoError(t, database.DB.Create(&database.Subscription{
		SubscriberID: subscriber.ID, FATID: 1, PortNumber: 1, VirtualSubscriberNumber: "V-1000",
	}).Error)

	assert.Equal(t, "This port is already occupied on this FAT", duplicateSubscriptionMessage(1, 1, "V-9000"))
	assert.Equal(t, "Virtual subscriber number already exists", duplicateSubscriptionMessage(1, 2, "V-1000"))
	// Neither column shows a live conflict (the conflicting row may have
	// been deleted in between); the message must not blame one anyway.
	assert.Equal(t, "Subscription conflicts with an existing record", duplicateSubscriptionMessage(1, 2, "V-9000"))
}

func TestDuplicateSubscriberMessageAttribution(t *testing.T) {
	setupMessageDB(t, "conflictmsg_subscriber")
	national := "0012345678"
	require.NoError(t, database.DB.Create(&database.Subscriber{
		FullName: "Jane Doe", MobileNumber: "09123456789", NationalID: &national,
	}).Error)

	other := "0087654321"
	assert.Equal(t, "Mobile number already exists", duplicateSubscriberMessage("09123456789", nil))
	assert.Equal(t, "National id already exists", duplicateSubscriberMessage("09999999999", &national))
	assert.Equal(t, "Subscriber conflicts with an existing record", duplicateSubscriberMessage("09999999999", &other))
	assert.Equal(t, "Subscriber conflicts with an existing record", duplicateSubscriberMessage("09999999999", nil))
}
