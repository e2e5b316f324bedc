package enum

// OrderStatus is the lifecycle label of an order. Transitions are set by
// staff (kitchen, cashier) without server-side sequencing; the one exception
// is checkout, which diners may only trigger from StatusDelivered.
type OrderStatus string

const (
	StatusNew              OrderStatus = "new"
	StatusInKitchen        OrderStatus = "in-kitchen"
	StatusReady            OrderStatus = "ready"
	StatusDelivered        OrderStatus = "delivered"
	StatusBillingRequested OrderStatus = "billing-requested"
	StatusPaid             OrderStatus = "paid"
	StatusCompleted        OrderStatus = "completed"
)

// AllStatuses lists every valid status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusNew,
	StatusInKitchen,
	StatusReady,
	StatusDelivered,
	StatusBillingRequested,
	StatusPaid,
	StatusCompleted,
}

// fallbackMessage is shown for any status outside the known set, including
// the empty string while an order row is still loading.
const fallbackMessage = "Updating your order status..."

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInKitchen, StatusReady, StatusDelivered,
		StatusBillingRequested, StatusPaid, StatusCompleted:
		return true
	}
	return false
}

// Message returns the diner-facing text for the status.
func (s OrderStatus) Message() string {
	switch s {
	case StatusNew:
		return "Your order is new and being prepared. Thanks for your patience!"
	case StatusInKitchen:
		return "Your order is now cooking with care."
	case StatusReady:
		return "Your order is ready. Enjoy your meal!"
	case StatusDelivered:
		return "Your order has been delivered. Thank you for choosing us!"
	case StatusBillingRequested:
		return "You requested the bill. Preparing your payment."
	case StatusPaid:
		return "Thanks for your payment. Finalizing your order shortly."
	case StatusCompleted:
		return "Your order is complete. Have a wonderful day!"
	}
	return fallbackMessage
}

// CanEdit reports whether the order may still be edited in place.
// Past StatusNew, additions go through a fresh order instead.
func (s OrderStatus) CanEdit() bool { return s == StatusNew }

// CanCheckout reports whether a diner may request the bill.
func (s OrderStatus) CanCheckout() bool { return s == StatusDelivered }

// Terminal reports whether the order cycle is over and the table
// should be released.
func (s OrderStatus) Terminal() bool { return s == StatusCompleted }

// Staff roles.
const (
	RoleManager = "MANAGER"
	RoleKitchen = "KITCHEN"
	RoleCashier = "CASHIER"
)

func ValidRole(role string) bool {
	switch role {
	case RoleManager, RoleKitchen, RoleCashier:
		return true
	}
	return false
}
