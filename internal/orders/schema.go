package orders

import "github.com/ariefcatur/go-order-fulfillment/internal/query"

func withIdentity(fields ...query.Field) []query.Field {
	return append(query.IdentityFields(), fields...)
}

var (
	CategoryEntity = query.NewEntity("Category", "categories", withIdentity(
		query.Col("name", query.Text),
		query.Col("description", query.Text),
	)...)

	ProductEntity = query.NewEntity("Product", "products", withIdentity(
		query.Col("name", query.Text),
		query.Col("description", query.Text),
		query.Col("price", query.Numeric),
	)...)

	// ProductCategoryEntity is the many-to-many association table. It is only
	// used as a join target.
	ProductCategoryEntity = query.NewEntity("ProductCategory", "product_category",
		query.Col("product_id", query.Text),
		query.Col("category_id", query.Text),
	)

	InventoryEntity = query.NewEntity("Inventory", "inventories", withIdentity(
		query.Col("product_id", query.Text),
		query.Col("quantity", query.Int),
	)...)

	OrderEntity = query.NewEntity("Order", "orders", withIdentity(
		query.Col("product_id", query.Text),
		query.Col("quantity", query.Int),
		query.Col("status", query.Text),
	)...)

	OrderLogEntity = query.NewEntity("OrderLog", "order_logs", withIdentity(
		query.Col("order_id", query.Text),
		query.Col("status", query.Text),
		query.Col("processed_at", query.Timestamp),
		query.Col("error_message", query.Text),
	)...)
)

// ByCategory joins products to the association table and filters on the
// category uuid.
func ByCategory(categoryUUID string) query.Join {
	return query.Join{
		Target:     ProductCategoryEntity,
		On:         "uuid",
		Key:        "product_id",
		Conditions: query.Conditions{"category_id": categoryUUID},
	}
}
