package store

import "time"

// Category classifies a task for visibility decisions.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategorySchool   Category = "school"
	CategoryWork     Category = "work"
	CategoryOther    Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryPersonal, CategorySchool, CategoryWork, CategoryOther}

func (c Category) Valid() bool {
	switch c {
	case CategoryPersonal, CategorySchool, CategoryWork, CategoryOther:
		return true
	}
	return false
}

// ZoneKind names the location context a zone stands for.
type ZoneKind string

const (
	ZoneHome   ZoneKind = "home"
	ZoneSchool ZoneKind = "school"
	ZoneWork   ZoneKind = "work"
)

var ZoneKinds = []ZoneKind{ZoneHome, ZoneSchool, ZoneWork}

func (k ZoneKind) Valid() bool {
	switch k {
	case ZoneHome, ZoneSchool, ZoneWork:
		return true
	}
	return false
}

type Task struct {
	ID        int64
	Title     string
	Detail    string
	Category  Category
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Zone is a circular geofence. Listing order is registration order.
type Zone struct {
	ID        int64
	Name      string
	Lat       float64
	Lon       float64
	Radius    float64 // meters, > 0
	Kind      ZoneKind
	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}
