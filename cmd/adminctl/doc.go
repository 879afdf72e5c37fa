// Command adminctl sends administrative requests to player conductors and
// manages the registry that maps player ids to admin ports.
//
//	adminctl call --port 9000 '{"method":"ping"}'
//	adminctl call --player alice '{"method":"echo","data":[1,2,3]}'
//	adminctl player register alice 9000
//	adminctl serve --listen :9000 --register alice
package main
