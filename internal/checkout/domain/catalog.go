package domain

type CatalogItem struct {
	SKU       string
	Name      string
	UnitPrice int64
}

// Catalog is the fixed two-SKU store front.
var Catalog = []CatalogItem{
	{SKU: "item0008", Name: "Fire HD8", UnitPrice: 8980},
	{SKU: "item0010", Name: "Fire HD10", UnitPrice: 15980},
}
