package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"KrishHortus-App/internal/application"
	"KrishHortus-App/internal/domain/repository"
	"KrishHortus-App/internal/handler"
	"KrishHortus-App/internal/infrastructure/ai"
	"KrishHortus-App/internal/infrastructure/database"
	"KrishHortus-App/internal/infrastructure/maps"
	repoimpl "KrishHortus-App/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	// ローカルフォールバックストア（耐久KV）の初期化
	localStorePath := os.Getenv("TREE_LOCAL_STORE_PATH")
	if localStorePath == "" {
		localStorePath = "krish_hortus.db"
	}
	sqliteClient, err := database.NewSQLiteClient(localStorePath)
	if err != nil {
		log.Fatalf("ローカルストアの初期化失敗: %v", err)
	}
	defer sqliteClient.Close()
	localStore := repoimpl.NewSQLiteTreesStore(sqliteClient)

	// リモートストアの選択（http | supabase）
	remoteStore, err := buildRemoteStore()
	if err != nil {
		log.Fatalf("リモートストアの初期化失敗: %v", err)
	}

	treesRepo := repoimpl.NewFallbackTreesRepository(remoteStore, localStore)

	// セッションのコレクションストアを生成して初期ロード
	store := application.NewTreeCollectionStore(treesRepo)
	if err := store.Load(context.Background()); err != nil {
		log.Fatalf("樹木コレクションの初期ロード失敗: %v", err)
	}
	fmt.Printf("✅ Loaded %d trees into the session store\n", len(store.Current()))

	resolver := maps.NewMapboxAddressResolver(os.Getenv("MAPBOX_ACCESS_TOKEN"))
	controller := application.NewMapInteractionController(store, resolver, maps.NewUnsupportedGeolocator())

	visionClient := ai.NewVisionClient(os.Getenv("GOOGLE_VISION_API_KEY"))
	identifyService := application.NewTreeIdentificationService(ai.NewVisionTreeIdentifier(visionClient))

	router := handler.NewRouter(
		handler.NewTreesHandler(store, identifyService),
		handler.NewMapHandler(controller),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("KrishHortus-App server starting on :%s...\n", port)
	log.Fatal(router.Run(":" + port))
}

// buildRemoteStore 環境変数からリモートストアの実装を選択する
func buildRemoteStore() (repository.RemoteTreesStore, error) {
	backend := os.Getenv("TREE_REMOTE_BACKEND")

	if backend == "supabase" {
		supabaseClient, err := database.NewSupabaseClient(
			os.Getenv("SUPABASE_URL"),
			os.Getenv("SUPABASE_ANON_KEY"),
		)
		if err != nil {
			return nil, err
		}
		fmt.Println("Using Supabase as the remote trees store")
		return repoimpl.NewSupabaseTreesRepository(supabaseClient), nil
	}

	baseURL := os.Getenv("TREE_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api/v1"
	}
	fmt.Printf("Using tree service at %s as the remote trees store\n", baseURL)
	return repoimpl.NewHTTPTreesRepository(baseURL), nil
}
