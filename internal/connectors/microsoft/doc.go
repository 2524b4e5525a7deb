// Package microsoft is the Microsoft Graph adapter shared by the Office 365
// resource connectors.
//
// This package provides:
//   - Client, an authenticated Graph v1.0 HTTP client with pagination
//   - OAuthHandler, the device-code and refresh-token exchanges
//   - Rate limiting per Graph workload
//   - Error mapping from Graph responses onto the domain taxonomy
//
// # Requests
//
// Every request carries a bearer token from a driven.TokenProvider and the
// header Prefer: outlook.timezone="UTC", so unzoned datetimes in responses
// are UTC. Requests using $search or $count add ConsistencyLevel: eventual.
//
// # Pagination
//
// Collections are paged with @odata.nextLink. ListAll follows the links
// until the collection is exhausted; limits are applied afterwards with
// ApplyLimit so a limit never depends on the server page size.
//
// # Throttling
//
// A 429 response records its Retry-After on the workload's RateLimiter and
// the request is retried once. A second 429 surfaces as an *APIError that
// unwraps to both ErrRateLimited and domain.ErrRateLimited.
//
// # OAuth2 Flow
//
// Login uses the device authorisation grant against
// {authority}/{tenant}/oauth2/v2.0/devicecode. The "offline_access" scope
// is required for refresh tokens.
package microsoft
