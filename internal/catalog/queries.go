package catalog

// GraphQL documents sent to the commerce platform. Custom fields are
// aliased so the wire shape stays stable even if field names change.

const variantFields = `
	id
	sku
	title
	quantityAvailable
	inventoryItemId
	image { url }
	syncKey: customField(namespace: $ns, key: "sync_key") { value }
	alertThreshold: customField(namespace: $ns, key: "alert_threshold") { value }
	orderCount: customField(namespace: $ns, key: "order_count") { value }
	product {
		id
		title
		productType
		image { url }
		monitoring: customField(namespace: $ns, key: "monitoring_enabled") { value }
	}
`

const queryVariantByInventoryItem = `
query VariantByInventoryItem($id: ID!, $ns: String!) {
	inventoryItem(id: $id) {
		variant {` + variantFields + `}
	}
}`

const queryVariantByID = `
query VariantByID($id: ID!, $ns: String!) {
	productVariant(id: $id) {` + variantFields + `}
}`

const querySearchVariants = `
query SearchVariants($query: String!, $first: Int!, $ns: String!) {
	productVariants(query: $query, first: $first) {
		nodes {` + variantFields + `}
	}
}`

const queryListProducts = `
query ListProducts($first: Int!, $ns: String!) {
	products(first: $first) {
		nodes {
			id
			title
			monitoring: customField(namespace: $ns, key: "monitoring_enabled") { value }
			variants(first: 100) {
				nodes {` + variantFields + `}
			}
		}
	}
}`

const mutationAdjustQuantity = `
mutation AdjustQuantity($inventoryItemId: ID!, $locationId: ID!, $delta: Int!) {
	inventoryAdjustQuantity(input: {inventoryItemId: $inventoryItemId, locationId: $locationId, availableDelta: $delta}) {
		inventoryLevel { available }
		userErrors { field message }
	}
}`

const mutationSetField = `
mutation SetField($ownerId: ID!, $namespace: String!, $key: String!, $value: String!) {
	customFieldSet(input: {ownerId: $ownerId, namespace: $namespace, key: $key, value: $value}) {
		customField { id }
		userErrors { field message }
	}
}`
