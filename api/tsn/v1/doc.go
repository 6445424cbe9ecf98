// Package tsnv1 defines the wire API of the timeline service: message types,
// the closed Status enumeration and the SNetwork gRPC service.
//
// Messages are plain structs carried by a JSON codec registered under the
// "json" content-subtype; clients built with NewSNetworkClient select it
// automatically.
package tsnv1
