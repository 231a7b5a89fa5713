package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"soulmatch_server/routes"
	"soulmatch_server/services"
	"soulmatch_server/socket"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// defaultReconcileInterval matches the waitlist page's original 5s poll.
const defaultReconcileInterval = 5 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize DynamoDB client and store
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	store := services.NewDynamoStore(dynamoService)
	log.Println("DynamoDB client initialized.")

	// Initialize Socket.IO server for live chat delivery
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server failed: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize Services
	profileService := &services.ProfileService{Store: store}
	matchService := &services.MatchService{Store: store}
	actionService := &services.ActionService{Store: store}
	connectionService := &services.ConnectionService{Store: store}
	chatService := &services.ChatService{Store: store, Notifier: socketServer}
	s3Service := &services.S3Service{Client: services.InitializeS3Client()}

	// Promote waitlisted profiles in the background
	interval := defaultReconcileInterval
	if v := os.Getenv("WAITLIST_RECONCILE_INTERVAL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid WAITLIST_RECONCILE_INTERVAL %q: %v", v, err)
		}
		interval = parsed
	}
	go profileService.RunWaitlistReconciler(context.Background(), interval)

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize the router
	r := mux.NewRouter()
	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterRoutes(r)
	routes.RegisterProfileRoutes(r, profileService)
	routes.RegisterMatchRoutes(r, matchService)
	routes.RegisterActionRoutes(r, actionService)
	routes.RegisterConnectionRoutes(r, connectionService)
	routes.RegisterChatRoutes(r, chatService)
	routes.RegisterS3Routes(r, s3Service)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
