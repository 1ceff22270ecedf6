package blackhole

import (
	"io"
	"net/http"
)

// emptyFrame is a gRPC length-prefixed message: uncompressed, zero length.
var emptyFrame = []byte{0, 0, 0, 0, 0}

// AlwaysGRPCOK answers any unary gRPC call with an empty message and
// status OK. The response decodes as the zero value of whatever message
// type the client expects.
//
// gRPC needs HTTP/2, which Spawn serves in cleartext, so a client dialing
// the blackhole's host with insecure credentials gets through.
func AlwaysGRPCOK(w http.ResponseWriter, r *http.Request) {
	io.Copy(io.Discard, r.Body)

	w.Header().Set("Content-Type", "application/grpc")
	w.Header().Set("Trailer", "Grpc-Status")
	w.WriteHeader(http.StatusOK)
	w.Write(emptyFrame)

	w.Header().Set("Grpc-Status", "0")
}
