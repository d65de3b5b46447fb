package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for catalog documents.
const DefaultIndexName = "storefront_products"

// buildIndexMapping returns the JSON mapping for the catalog index. Free-text
// fields use the wildcard type so case-insensitive substring queries stay
// cheap on long values.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":                { "type": "keyword" },
      "name":              { "type": "wildcard" },
      "description":       { "type": "wildcard" },
      "short_description": { "type": "wildcard" },
      "category":          { "type": "keyword" },
      "subcategory":       { "type": "keyword" },
      "brand":             { "type": "keyword" },
      "tags":              { "type": "keyword" },
      "colors":            { "type": "keyword" },
      "sizes":             { "type": "keyword" },
      "materials":         { "type": "keyword" },
      "gender":            { "type": "keyword" },
      "age_group":         { "type": "keyword" },
      "image_url":         { "type": "keyword", "index": false },
      "price":             { "type": "long" },
      "original_price":    { "type": "long" },
      "currency":          { "type": "keyword" },
      "stock_quantity":    { "type": "integer" },
      "is_active":         { "type": "boolean" },
      "is_featured":       { "type": "boolean" },
      "is_new":            { "type": "boolean" },
      "is_sale":           { "type": "boolean" },
      "average_rating":    { "type": "float" },
      "total_reviews":     { "type": "integer" },
      "sales_count":       { "type": "integer" },
      "view_count":        { "type": "integer" },
      "created_at":        { "type": "date" }
    }
  }
}`
}
