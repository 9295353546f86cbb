package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

// UpdateDevice inserts or refreshes a device registry row keyed by source
// IP. Nil hostname or snmpVersion leave any existing column value in place,
// so partial sightings never erase what an earlier one learned.
func (s *Store) UpdateDevice(ctx context.Context, ip string, hostname, snmpVersion *string, lastSeen time.Time) error {
	device := models.Device{
		IP:          ip,
		Hostname:    hostname,
		SNMPVersion: snmpVersion,
		LastSeen:    lastSeen,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ip"}},
		DoUpdates: clause.Assignments(map[string]any{
			"hostname":     gorm.Expr("COALESCE(excluded.hostname, devices.hostname)"),
			"snmp_version": gorm.Expr("COALESCE(excluded.snmp_version, devices.snmp_version)"),
			"last_seen":    gorm.Expr("excluded.last_seen"),
		}),
	}).Create(&device).Error
	if err != nil {
		s.recordError("update_device")
		return err
	}
	return nil
}

// GetDevice returns the registry row for an IP.
func (s *Store) GetDevice(ctx context.Context, ip string) (*models.Device, error) {
	var device models.Device
	if err := s.db.WithContext(ctx).Where("ip = ?", ip).First(&device).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrDeviceNotFound)
	}
	return &device, nil
}

// ListDevices returns all known devices, most recently seen first.
func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := s.db.WithContext(ctx).Order("last_seen DESC").Find(&devices).Error
	if err != nil {
		s.recordError("list_devices")
		return nil, err
	}
	return devices, nil
}
