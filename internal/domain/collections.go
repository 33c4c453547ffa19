package domain

const (
	CollectionUsers          = "users"
	CollectionMeals          = "meals"
	CollectionMenuDays       = "menu_days"
	CollectionOrders         = "orders"
	CollectionConfirmations  = "confirmations"
	CollectionReviews        = "reviews"
	CollectionInventory      = "inventory"
	CollectionOrderStatusLog = "order_status_log"
	CollectionEvents         = "calendar_events"
)

// Index declares an index on top-level document fields.
type Index struct {
	Collection string
	Name       string
	Fields     []string
	Unique     bool
}

// Indexes returns every index the stores must maintain.
func Indexes() []Index {
	return []Index{
		{Collection: CollectionUsers, Name: "ux_users_email", Fields: []string{"email"}, Unique: true},
		{Collection: CollectionMeals, Name: "ux_meals_cook_name", Fields: []string{"cook_id", "name"}, Unique: true},
		{Collection: CollectionMenuDays, Name: "ux_menu_days_cook_date", Fields: []string{"cook_id", "date"}, Unique: true},
		{Collection: CollectionOrders, Name: "ux_orders_customer_cook_delivery", Fields: []string{"customer_id", "cook_id", "delivery_date"}, Unique: true},
		{Collection: CollectionReviews, Name: "ux_reviews_meal_user", Fields: []string{"meal_id", "user_id"}, Unique: true},
		{Collection: CollectionConfirmations, Name: "ix_confirmations_cook_date", Fields: []string{"cook_id", "date"}},
		{Collection: CollectionInventory, Name: "ix_inventory_cook", Fields: []string{"cook_id"}},
		{Collection: CollectionOrderStatusLog, Name: "ix_order_status_log_order", Fields: []string{"order_id"}},
		{Collection: CollectionEvents, Name: "ix_calendar_events_cook_start", Fields: []string{"cook_id", "start_day"}},
	}
}
