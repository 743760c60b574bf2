package model

import "time"

// Device represents a provisioned IoT NFC reader as stored in the
// `devices` table.  Devices authenticate themselves with their
// device_id and api_key pair on every request.  Rows are immutable
// after creation; re-provisioning is handled out of band.
//
// Fields:
//  ID        – primary key identifier.
//  DeviceID  – unique hardware identifier of the reader.
//  APIKey    – shared secret presented in the X-API-Key header.
//  CreatedAt – timestamp of provisioning.
type Device struct {
	ID        uint64    // devices.id
	DeviceID  string    // devices.device_id
	APIKey    string    // devices.api_key
	CreatedAt time.Time // devices.created_at
}
