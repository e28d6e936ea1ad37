// Package api is the client for the stock prediction portal's HTTP API.
//
// A Client holds two HTTP clients. The raw client sends credential and
// registration calls (/token/, /token/refresh/, /register/) directly,
// without credential stamping or renewal. The authenticated client routes
// protected calls (/protected/, /predict/) through a transport.Pipeline.
//
// Client.Refresh implements transport.Renewer, which closes the loop:
//
//	client, _ := api.New(cfg.API.BaseURL)
//	coordinator := transport.NewRefreshCoordinator(store, client)
//	pipeline := transport.NewPipeline(nil,
//		transport.WithRequestStages(transport.RequestID, transport.Authorizer(store)),
//		transport.WithResponseStages(coordinator.HandleResponse))
//	client = client.Authenticated(pipeline)
//
// # Errors
//
// Rejections with a 4xx status decode into *ValidationError carrying the
// server's "detail" message and the first message for each field. Network
// failures are classified into *TransportError. Prediction failures, which
// the portal reports inside a 200 response, become *PredictionError.
// Authentication failures from the pipeline are returned unchanged as
// *transport.AuthError.
package api
