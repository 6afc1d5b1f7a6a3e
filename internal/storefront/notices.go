package storefront

const (
	NoticeLoadProductsFailed = "Failed to load products"
	NoticeLoadCartFailed     = "Failed to load cart"
	NoticeAddFailed          = "Failed to add to cart"
	NoticeChangeFailed       = "Failed to change quantity"
	NoticeRemoveFailed       = "Failed to remove item"
	NoticeCheckoutFailed     = "Checkout failed"
	NoticeLogoutFailed       = "Logout failed"
	NoticeLoginFailed        = "Login failed"
	NoticeRegisterFailed     = "Registration failed"
	NoticeAuthRequired       = "Authentication required"
	NoticeUnknownProduct     = "No product specified"
	NoticeInvalidQuantity    = "Invalid quantity"
	NoticeOrderPlaced        = "Order placed!"
)

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a message shown above the current view.
type Notice struct {
	Kind NoticeKind
	Text string
}

func errorNotice(text string) *Notice { return &Notice{Kind: NoticeError, Text: text} }
