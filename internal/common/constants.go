package common

const (
	AppStorefront = "storefront"
	AppNotifier   = "storefront-notifier"

	AudienceStorefront = "storefront-user"
)
