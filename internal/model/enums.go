package model

// RoomType is the closed set of room kinds.
type RoomType string

const (
	RoomLivingRoom  RoomType = "living_room"
	RoomKitchen     RoomType = "kitchen"
	RoomBedroom     RoomType = "bedroom"
	RoomBathroom    RoomType = "bathroom"
	RoomDiningRoom  RoomType = "dining_room"
	RoomOffice      RoomType = "office"
	RoomGarage      RoomType = "garage"
	RoomBasement    RoomType = "basement"
	RoomAttic       RoomType = "attic"
	RoomCloset      RoomType = "closet"
	RoomLaundryRoom RoomType = "laundry_room"
	RoomPantry      RoomType = "pantry"
)

// RoomTypes lists every RoomType in display order.
var RoomTypes = []RoomType{
	RoomLivingRoom, RoomKitchen, RoomBedroom, RoomBathroom, RoomDiningRoom, RoomOffice,
	RoomGarage, RoomBasement, RoomAttic, RoomCloset, RoomLaundryRoom, RoomPantry,
}

// Valid reports whether t is one of RoomTypes.
func (t RoomType) Valid() bool { return contains(RoomTypes, t) }

// ItemCategory is the closed set of item categories.
type ItemCategory string

const (
	CategoryElectronics        ItemCategory = "electronics"
	CategoryAppliances         ItemCategory = "appliances"
	CategoryJewelry            ItemCategory = "jewelry"
	CategoryArt                ItemCategory = "art"
	CategoryMusicalInstruments ItemCategory = "musical_instruments"
	CategoryTools              ItemCategory = "tools"
	CategoryFurniture          ItemCategory = "furniture"
	CategorySportsEquipment    ItemCategory = "sports_equipment"
	CategoryClothing           ItemCategory = "clothing"
	CategoryBooks              ItemCategory = "books"
	CategoryCollectibles       ItemCategory = "collectibles"
	CategoryOther              ItemCategory = "other"
)

// ItemCategories lists every ItemCategory.
var ItemCategories = []ItemCategory{
	CategoryElectronics, CategoryAppliances, CategoryJewelry, CategoryArt,
	CategoryMusicalInstruments, CategoryTools, CategoryFurniture, CategorySportsEquipment,
	CategoryClothing, CategoryBooks, CategoryCollectibles, CategoryOther,
}

// Valid reports whether c is one of ItemCategories.
func (c ItemCategory) Valid() bool { return contains(ItemCategories, c) }

// ItemCondition grades the physical state of an item.
type ItemCondition string

const (
	ConditionNew       ItemCondition = "new"
	ConditionExcellent ItemCondition = "excellent"
	ConditionGood      ItemCondition = "good"
	ConditionFair      ItemCondition = "fair"
	ConditionPoor      ItemCondition = "poor"
)

// ItemConditions lists every ItemCondition from best to worst.
var ItemConditions = []ItemCondition{
	ConditionNew, ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor,
}

// Valid reports whether c is one of ItemConditions.
func (c ItemCondition) Valid() bool { return contains(ItemConditions, c) }

// ImageType classifies an ItemImage.
type ImageType string

const (
	ImageRoomOverview ImageType = "room_overview"
	ImageItemDetail   ImageType = "item_detail"
	ImageReceipt      ImageType = "receipt"
	ImageSerialNumber ImageType = "serial_number"
	ImageDamage       ImageType = "damage"
)

// ImageTypes lists every ImageType.
var ImageTypes = []ImageType{
	ImageRoomOverview, ImageItemDetail, ImageReceipt, ImageSerialNumber, ImageDamage,
}

// Valid reports whether t is one of ImageTypes.
func (t ImageType) Valid() bool { return contains(ImageTypes, t) }

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
