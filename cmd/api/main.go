package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/approval"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/auth"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/breakdown"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/comment"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/ledger"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/notification"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/partner"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/ratetable"
	dbutil "github.com/time-consulting/PartnerConnector-10.0-sub000/internal/utils/db"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	db, err := dbutil.GetDB()
	if err != nil {
		log.Fatal("database connection failed: ", err)
	}

	if err := db.AutoMigrate(
		&partner.Partner{},
		&deal.Deal{},
		&deal.StageAudit{},
		&comment.Comment{},
		&approval.CommissionApproval{},
		&ledger.Entry{},
	); err != nil {
		log.Fatal("auto-migration failed: ", err)
	}

	notifier := notification.NewNotifier(os.Getenv("WEBHOOK_URL"))

	dealRepo := deal.NewRepository()
	partnerRepo := partner.NewRepository()
	commentRepo := comment.NewRepository()
	approvalRepo := approval.NewRepository()
	ledgerRepo := ledger.NewRepository()

	dealService := deal.NewService(db, dealRepo, commentRepo, notifier)
	breakdownService := breakdown.NewService(db, dealRepo, partnerRepo, approvalRepo, notifier)
	approvalService := approval.NewService(db, approvalRepo, ledgerRepo, notifier)

	partnerHandler := partner.NewHandler(db)
	dealHandler := deal.NewHandler(db, dealService)
	commentHandler := comment.NewHandler(db, dealRepo)
	breakdownHandler := breakdown.NewHandler(breakdownService)
	approvalHandler := approval.NewHandler(db, approvalService)

	r := mux.NewRouter()

	// Open routes.
	r.HandleFunc("/partners", partnerHandler.Register).Methods("POST")
	r.HandleFunc("/login", partnerHandler.Login).Methods("POST")
	r.HandleFunc("/rates", ratetable.Rates).Methods("GET")

	// Authenticated routes.
	api := r.NewRoute().Subrouter()
	api.Use(auth.Middleware)

	api.HandleFunc("/me", partnerHandler.Me).Methods("GET")
	api.HandleFunc("/partners", partnerHandler.List).Methods("GET")
	api.HandleFunc("/partners/{id}", partnerHandler.Get).Methods("GET")
	api.HandleFunc("/partners/{id}", partnerHandler.Update).Methods("PUT")
	api.HandleFunc("/partners/{id}/summary", partnerHandler.Summary).Methods("GET")
	api.HandleFunc("/partners/{id}/deals", dealHandler.ListByPartner).Methods("GET")
	api.HandleFunc("/partners/{id}/approvals", approvalHandler.ListByRecipient).Methods("GET")

	api.HandleFunc("/deals", dealHandler.Submit).Methods("POST")
	api.HandleFunc("/deals/{id}", dealHandler.FindByID).Methods("GET")
	api.HandleFunc("/deals/{id}/comments", commentHandler.Create).Methods("POST")
	api.HandleFunc("/deals/{id}/comments", commentHandler.ListByDeal).Methods("GET")

	api.HandleFunc("/approvals/{id}", approvalHandler.Get).Methods("GET")
	api.HandleFunc("/approvals/{id}/approve", approvalHandler.Approve).Methods("POST")
	api.HandleFunc("/approvals/{id}/reject", approvalHandler.Reject).Methods("POST")

	// Admin routes.
	admin := r.NewRoute().Subrouter()
	admin.Use(auth.Middleware, auth.RequireAdmin)

	admin.HandleFunc("/deals", dealHandler.List).Methods("GET")
	admin.HandleFunc("/deals/{id}/stage", dealHandler.AdvanceStage).Methods("PATCH")
	admin.HandleFunc("/deals/{id}/audit", dealHandler.AuditTrail).Methods("GET")
	admin.HandleFunc("/deals/{id}/admin-notes", dealHandler.UpdateAdminNotes).Methods("PATCH")
	admin.HandleFunc("/deals/{id}/breakdown", breakdownHandler.Calculate).Methods("POST")
	admin.HandleFunc("/deals/{id}/breakdown/finalize", breakdownHandler.Finalize).Methods("POST")
	admin.HandleFunc("/deals/{id}/approvals", approvalHandler.ListByDeal).Methods("GET")
	admin.HandleFunc("/breakdown/override", breakdownHandler.Override).Methods("POST")
	admin.HandleFunc("/approvals/{id}/payment", approvalHandler.ProcessPayment).Methods("POST")
	admin.HandleFunc("/approvals/{id}/withdraw", approvalHandler.Withdraw).Methods("POST")
	admin.HandleFunc("/partners/{id}/reset-password", partnerHandler.ResetPassword).Methods("POST")

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
