package internal

import (
	"net/http"
	"nfcattend/internal/controllers"
	"nfcattend/internal/providers"
)

const apiPrefix = "/api"

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider(apiPrefix)

	// document transfer
	routers.Get("/fetch-attendance", http.HandlerFunc(apiController.FetchAttendance))
	routers.Post("/save-attendance", http.HandlerFunc(apiController.SaveAttendance))
	routers.Post("/receive-attendance", http.HandlerFunc(apiController.ReceiveAttendance))

	// sign-in state
	routers.Post("/toggle", http.HandlerFunc(apiController.Toggle))
	routers.Post("/record-sign-in", http.HandlerFunc(apiController.RecordSignIn))
	routers.Post("/manual-sign-in", http.HandlerFunc(apiController.ManualSignIn))

	// reader events
	routers.Post("/card-detected", http.HandlerFunc(apiController.CardDetected))
	routers.Post("/card-removed", http.HandlerFunc(apiController.CardRemoved))
	routers.Get("/poll-status", http.HandlerFunc(apiController.PollStatus))
	routers.Get("/status", http.HandlerFunc(apiController.ReaderStatus))

	// card names
	routers.Post("/save-card-name", http.HandlerFunc(apiController.SaveCardName))
	routers.Get("/get-card-name", http.HandlerFunc(apiController.GetCardName))
	routers.Get("/get-all-card-names", http.HandlerFunc(apiController.GetAllCardNames))

	// views
	routers.Get("/attendance-status", http.HandlerFunc(apiController.AttendanceStatus))
	routers.Get("/dates", http.HandlerFunc(apiController.Dates))
	routers.Get("/person-profile", http.HandlerFunc(apiController.PersonProfile))
	return routers
}
