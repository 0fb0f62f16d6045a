package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/env"
	"github.com/alttrack/alttrack/internal/model"
	"github.com/alttrack/alttrack/internal/route/asset"
	"github.com/alttrack/alttrack/internal/route/auth"
	"github.com/alttrack/alttrack/internal/route/category"
	"github.com/alttrack/alttrack/internal/route/util"
	"github.com/alttrack/alttrack/internal/session"
	"github.com/alttrack/alttrack/internal/template"
)

type routeHandler func(*database.Conn, http.ResponseWriter, *http.Request)

// withConn binds the shared connection pool into a route handler, so route
// packages take their database dependency explicitly instead of reaching for
// a global.
func withConn(conn *database.Conn, handler routeHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		handler(conn, writer, request)
	}
}

func handleIndex(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	found, err := session.LoadUserFromSession(conn, request, &user)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if found {
		http.Redirect(writer, request, "/dashboard", http.StatusFound)
	} else {
		template.Render(template.Index, writer, nil)
	}
}

func main() {
	logger := logrus.New()

	env.LoadEnvironmentVariables()
	session.InitSessionStorage()
	template.Init()

	conn, err := database.Connect()

	if err != nil {
		logger.Fatalf("database connection error: %s", err)
	}

	defer conn.Close()

	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/", withConn(conn, handleIndex)).Methods("GET")
	router.HandleFunc("/login", withConn(conn, auth.HandleViewLoginForm)).Methods("GET")
	router.HandleFunc("/login", withConn(conn, auth.HandleLogin)).Methods("POST")
	router.HandleFunc("/register", withConn(conn, auth.HandleRegister)).Methods("POST")
	router.HandleFunc("/logout", withConn(conn, auth.HandleLogout)).Methods("POST")
	router.HandleFunc("/demo", withConn(conn, auth.HandleDemo)).Methods("POST")

	router.HandleFunc("/dashboard", withConn(conn, asset.HandleDashboard)).Methods("GET")

	router.HandleFunc("/fragments/assets/new", withConn(conn, asset.HandleNewAssetForm)).Methods("GET")
	router.HandleFunc("/fragments/assets", withConn(conn, asset.HandleCreateAsset)).Methods("POST")
	router.HandleFunc("/fragments/assets/{id}/edit", withConn(conn, asset.HandleEditAssetRow)).Methods("GET")
	router.HandleFunc("/fragments/assets/{id}", withConn(conn, asset.HandleUpdateAsset)).Methods("PUT")
	router.HandleFunc("/fragments/assets/{id}/delete", withConn(conn, asset.HandleDeleteAssetRow)).Methods("GET")
	router.HandleFunc("/fragments/assets/{id}", withConn(conn, asset.HandleArchiveAsset)).Methods("DELETE")
	router.HandleFunc("/fragments/assets/{id}/restore", withConn(conn, asset.HandleRestoreAsset)).Methods("POST")
	router.HandleFunc("/fragments/assets/{id}/history", withConn(conn, asset.HandleAssetHistory)).Methods("GET")
	router.HandleFunc("/fragments/audit/deleted", withConn(conn, asset.HandleDeletedAssets)).Methods("GET")

	router.HandleFunc("/fragments/categories/manage", withConn(conn, category.HandleManageCategories)).Methods("GET")
	router.HandleFunc("/fragments/categories/new", withConn(conn, category.HandleNewCategoryForm)).Methods("GET")
	router.HandleFunc("/fragments/categories", withConn(conn, category.HandleCreateCategory)).Methods("POST")
	router.HandleFunc("/fragments/categories/{id}", withConn(conn, category.HandleDeleteCategory)).Methods("DELETE")

	fileServer := http.FileServer(http.Dir("./static/"))
	router.PathPrefix("/static/").
		Handler(http.StripPrefix("/static/", fileServer))

	port := os.Getenv("PORT")

	if port == "" {
		port = "8000"
	}

	server := http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %s", err)
		}
	}()

	logger.Infof("server started on :%s", port)
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("server shut down failed: %+v", err)
	}

	logger.Info("server shut down successfully")
}
