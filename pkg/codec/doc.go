// Package codec defines the message encode/decode contract used by the
// socket layer and the closed set of built-in implementations.
//
// A codec is selected by name through the configuration's jsonCodec field
// ("json" is the default), or injected directly as a Codec value. The
// registry is static: there is no runtime registration.
package codec
