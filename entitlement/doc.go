// Package entitlement mirrors the session container pattern for purchasable
// products: a Container owns the product catalog, subscription status, and
// the in-flight/error state of purchase operations, delegating the actual
// purchase and restore work to an injected Provider or caller-supplied
// handlers.
package entitlement
