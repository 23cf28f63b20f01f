package models

// Product is a catalog entry describing a finished product that can be cut
// from a board. Owned by the external catalog; read-only here. Width and
// thickness may be approximations for irregular shapes.
type Product struct {
	ID          string  `bson:"product_id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	TypeID      string  `bson:"type_id" json:"type_id"`
	LengthMm    int     `bson:"length_mm" json:"length_mm"`
	WidthMm     int     `bson:"width_mm" json:"width_mm"`
	ThicknessMm int     `bson:"thickness_mm" json:"thickness_mm"`
	Price       float64 `bson:"price" json:"price"`
	ImageURL    string  `bson:"image_url" json:"image_url"`
}

// CartItem pairs a product with the number of units cut from the current
// board. A product appears at most once in a cart.
type CartItem struct {
	Product  Product `bson:"product" json:"product"`
	Quantity int     `bson:"quantity" json:"quantity"`
}
