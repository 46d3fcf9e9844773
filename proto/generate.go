// Package proto holds the service definitions. Stubs are generated into
// gen/proto and are not committed.
package proto

//go:generate protoc -I . --go_out=../gen/proto --go_opt=paths=source_relative --go-grpc_out=../gen/proto --go-grpc_opt=paths=source_relative explainer/v1/explainer.proto
