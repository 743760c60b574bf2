package model

import "time"

// Equipment represents a gym machine as stored in the `equipment`
// table (e.g. "Treadmill 1" of type "treadmill").
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name of the machine.
//  EquipmentType – category (treadmill, bike, bench, ...).
//  CreatedAt     – registration timestamp.
type Equipment struct {
	ID            uint64    // equipment.id
	Name          string    // equipment.name
	EquipmentType string    // equipment.equipment_type
	CreatedAt     time.Time // equipment.created_at
}
