package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/api"
	"github.com/eventlabs/event-reg-api/api/scheduler"
	"github.com/eventlabs/event-reg-api/config"
	"github.com/eventlabs/event-reg-api/databases"
	"github.com/eventlabs/event-reg-api/engine"
	"github.com/eventlabs/event-reg-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	DB       databases.CollectionHelper
	Config   config.Config
	dbHelper databases.DatabaseHelper
	engine   *engine.Engine
	hub      *NotificationHub
	sched    *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	eventDB := databases.NewEventDatabase(a.dbHelper)
	registrationDB := databases.NewRegistrationDatabase(a.dbHelper)
	teamDB := databases.NewTeamDatabase(a.dbHelper)

	a.hub = NewNotificationHub()
	a.engine = engine.New(eventDB, registrationDB, teamDB, a.hub)

	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	e := Event{DB: eventDB, Engine: a.engine}
	reg := Registration{DB: registrationDB, Engine: a.engine}
	t := Team{DB: teamDB, Engine: a.engine}
	promo := Promo{DB: eventDB}
	pay := Payment{Engine: a.engine, Config: a.Config}
	checkin := CheckIn{Engine: a.engine}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	// cap request duration; a hung request must not pin an event lock.
	// The websocket route stays on the root router so long-lived
	// connections are not cut off.
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/event", api.Middleware(http.HandlerFunc(e.CreateEventHandler))).Methods("POST")
	apiCreate.Handle("/event/{event_id}", http.HandlerFunc(e.EventByIDHandler)).Methods("GET")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(e.UpdateEventHandler))).Methods("PUT")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(e.DeleteEventHandler))).Methods("DELETE")
	apiCreate.Handle("/events/organizer/{organizer_id}", api.Middleware(http.HandlerFunc(e.EventsByOrganizerHandler))).Methods("GET")

	apiCreate.Handle("/event/{event_id}/registrations", api.Middleware(http.HandlerFunc(reg.CreateRegistrationHandler))).Methods("POST")
	apiCreate.Handle("/event/{event_id}/registrations", api.Middleware(http.HandlerFunc(reg.RegistrationsByEventHandler))).Methods("GET")
	apiCreate.Handle("/event/{event_id}/registrations/me", api.Middleware(http.HandlerFunc(reg.MyRegistrationHandler))).Methods("GET")
	apiCreate.Handle("/event/{event_id}/promote-waitlist", api.Middleware(http.HandlerFunc(reg.PromoteWaitlistHandler))).Methods("POST")
	apiCreate.Handle("/registration/{registration_id}", api.Middleware(http.HandlerFunc(reg.RegistrationByIDHandler))).Methods("GET")
	apiCreate.Handle("/registration/{registration_id}", api.Middleware(http.HandlerFunc(reg.CancelRegistrationHandler))).Methods("DELETE")
	apiCreate.Handle("/registration/{registration_id}/approve", api.Middleware(http.HandlerFunc(reg.ApproveRegistrationHandler))).Methods("POST")
	apiCreate.Handle("/registration/{registration_id}/reject", api.Middleware(http.HandlerFunc(reg.RejectRegistrationHandler))).Methods("POST")
	apiCreate.Handle("/registration/{registration_id}/attendance", api.Middleware(http.HandlerFunc(reg.MarkAttendanceHandler))).Methods("POST")
	apiCreate.Handle("/registrations/bulk-approve", api.Middleware(http.HandlerFunc(reg.BulkApproveHandler))).Methods("POST")

	apiCreate.Handle("/event/{event_id}/teams", api.Middleware(http.HandlerFunc(t.CreateTeamHandler))).Methods("POST")
	apiCreate.Handle("/event/{event_id}/teams", api.Middleware(http.HandlerFunc(t.TeamsByEventHandler))).Methods("GET")
	apiCreate.Handle("/event/{event_id}/teams/join", api.Middleware(http.HandlerFunc(t.JoinTeamHandler))).Methods("POST")
	apiCreate.Handle("/team/{team_id}", api.Middleware(http.HandlerFunc(t.TeamByIDHandler))).Methods("GET")

	apiCreate.Handle("/event/{event_id}/promo-preview", http.HandlerFunc(promo.PreviewPromoHandler)).Methods("GET")

	apiCreate.Handle("/registration/{registration_id}/checkout", api.Middleware(http.HandlerFunc(pay.CreateCheckoutSessionHandler))).Methods("POST")
	apiCreate.Handle("/registration/{registration_id}/payment", api.Middleware(http.HandlerFunc(pay.CompletePaymentHandler))).Methods("POST")
	apiCreate.Handle("/payments/success", http.HandlerFunc(pay.HandleSuccessRedirect)).Methods("GET")
	apiCreate.Handle("/payments/cancel", http.HandlerFunc(pay.HandleCancelRedirect)).Methods("GET")

	apiCreate.Handle("/registration/{registration_id}/checkin-token", api.Middleware(http.HandlerFunc(checkin.CreateCheckInTokenHandler))).Methods("GET")
	apiCreate.Handle("/checkin/scan", api.Middleware(http.HandlerFunc(checkin.ScanCheckInHandler))).Methods("POST")

	r.HandleFunc("/ws/notifications", a.hub.HandleNotificationsWebSocket)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("event-reg-api has connected to the database")

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = stripeKey

	// initialize api router
	a.initializeRoutes()

	// background jobs: waitlist sweeps, auto-close, reminder emails
	a.sched = scheduler.NewScheduler(
		databases.NewEventDatabase(a.dbHelper),
		databases.NewRegistrationDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
		a.engine,
	)
	a.sched.Start()

	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
