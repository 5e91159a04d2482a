package rewards

type ItemCategory string

const (
	CategoryApparel     ItemCategory = "apparel"
	CategoryAccessories ItemCategory = "accessories"
	CategorySpecial     ItemCategory = "special"
	CategoryDigital     ItemCategory = "digital"
)

// StoreItem is something NeoPoints can be redeemed for.
type StoreItem struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Points      int64        `json:"points"`
	Category    ItemCategory `json:"category"`
}

var catalog = []StoreItem{
	{1, "NeoFlow Premium T-shirt", "Soft organic cotton tee with the NeoFlow logo", 2500, CategoryApparel},
	{2, "NeoFlow Hoodie", "Heavyweight hoodie for supporters", 4500, CategoryApparel},
	{3, "NeoFlow Baseball Cap", "Embroidered cap", 1800, CategoryApparel},
	{4, "NeoFlow Beanie", "Knitted winter beanie", 1500, CategoryApparel},
	{5, "NeoFlow Custom Mug", "Ceramic mug with your tier badge", 1200, CategoryAccessories},
	{6, "NeoFlow Laptop Stickers", "Pack of NeoFlow stickers", 800, CategoryAccessories},
	{7, "NeoFlow Tote Bag", "Reusable canvas tote", 2000, CategoryAccessories},
	{8, "NeoFlow Phone Case", "Branded phone case", 1600, CategoryAccessories},
	{9, "Mystery Reward Box", "A surprise selection of NeoFlow goods", 3500, CategorySpecial},
	{10, "NeoFlow NFT Badge", "On-chain supporter badge", 5000, CategoryDigital},
	{11, "VIP Community Access", "Access to the private supporters community", 3000, CategoryDigital},
	{12, "NeoFlow Premium Badge", "Profile badge for premium supporters", 2200, CategoryDigital},
}

// Catalog returns a copy of the redemption store.
func Catalog() []StoreItem {
	items := make([]StoreItem, len(catalog))
	copy(items, catalog)
	return items
}

// FindItem looks up a store item by id.
func FindItem(id int) (StoreItem, bool) {
	for _, item := range catalog {
		if item.ID == id {
			return item, true
		}
	}
	return StoreItem{}, false
}
