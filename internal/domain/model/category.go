package model

// Category is one entry of the closed behavioral taxonomy.
type Category string

const (
	Navigation        Category = "NAVIGATION"
	Click             Category = "CLICK"
	Scroll            Category = "SCROLL"
	Search            Category = "SEARCH"
	ProductList       Category = "PRODUCT_LIST"
	ProductDetail     Category = "PRODUCT_DETAIL"
	AddToCart         Category = "ADD_TO_CART"
	CartView          Category = "CART_VIEW"
	CheckoutStart     Category = "CHECKOUT_START"
	Payment           Category = "PAYMENT"
	OrderConfirmation Category = "ORDER_CONFIRMATION"
	LoginOrRegister   Category = "LOGIN_OR_REGISTER"
	FilterOrSort      Category = "FILTER_OR_SORT"
	FormEntry         Category = "FORM_ENTRY"
	Unknown           Category = "UNKNOWN"
)

var taxonomy = []Category{
	Navigation, Click, Scroll, Search, ProductList, ProductDetail, AddToCart, CartView,
	CheckoutStart, Payment, OrderConfirmation, LoginOrRegister, FilterOrSort, FormEntry, Unknown,
}

// Categories returns the full taxonomy in declaration order.
func Categories() []Category {
	out := make([]Category, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Valid reports whether c belongs to the taxonomy.
func (c Category) Valid() bool {
	for _, t := range taxonomy {
		if t == c {
			return true
		}
	}
	return false
}

// Label is the fallback human-readable text for a category.
func (c Category) Label() string {
	switch c {
	case Navigation:
		return "Screen changed"
	case Click:
		return "Element clicked"
	case Scroll:
		return "List scrolled"
	case Search:
		return "Search opened"
	case ProductList:
		return "Product list viewed"
	case ProductDetail:
		return "Product detail viewed"
	case AddToCart:
		return "Add to cart clicked"
	case CartView:
		return "Cart opened"
	case CheckoutStart:
		return "Checkout started"
	case Payment:
		return "Payment step"
	case OrderConfirmation:
		return "Order confirmed"
	case LoginOrRegister:
		return "Login or registration"
	case FilterOrSort:
		return "Filter or sort applied"
	case FormEntry:
		return "Text entered"
	default:
		return "Unclassified event"
	}
}
