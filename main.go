package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/thepointbar/posbackend/config"
	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/myhttpclient"
	"github.com/thepointbar/posbackend/lib/mypublisher"
	"github.com/thepointbar/posbackend/lib/mypubsub"
	"github.com/thepointbar/posbackend/lib/myqueue"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/admin"
	"github.com/thepointbar/posbackend/services/cart"
	"github.com/thepointbar/posbackend/services/catalog"
	"github.com/thepointbar/posbackend/services/catalogapi"
	"github.com/thepointbar/posbackend/services/checkout"
	"github.com/thepointbar/posbackend/services/checkoutapi"
	"github.com/thepointbar/posbackend/services/paymodo"
	"github.com/thepointbar/posbackend/services/paymollie"
	"github.com/thepointbar/posbackend/services/paystripe"
	"github.com/thepointbar/posbackend/services/payqr"
	"github.com/thepointbar/posbackend/services/push"
	"github.com/thepointbar/posbackend/services/receipt"
)

func main() {
	c := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	// The store backend and callback hostnames are derived from the raw
	// environment, so export the configured values before anything reads them.
	err = cfg.Apply()
	if err != nil {
		log.Fatalf("Error applying configuration: %s", err)
	}

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()

	router := mux.NewRouter()

	// The outbox drains through this trigger endpoint
	publisher.RegisterEndpoints(c, router)

	catalogService, catalogCleanup := createCatalogService(c, nower, uuider, publisher)
	defer catalogCleanup()
	err = catalog.NewWebService(catalogService).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering catalog endpoints: %s", err)
	}

	payers := createPayers(cfg)
	providerNames := sortedProviderNames(payers)
	if len(providerNames) == 0 {
		log.Fatalf("No payment provider configured, nothing to sell")
	}
	log.Printf("Payment providers: %v", providerNames)

	cartService, cartCleanup := createCartService(c, catalogService, pubsub, nower, uuider)
	defer cartCleanup()
	err = cart.NewWebService(cartService, providerNames).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering cart endpoints: %s", err)
	}

	receiptService, receiptCleanup := createReceiptService(c, nower)
	defer receiptCleanup()
	err = receipt.NewWebService(receiptService).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering receipt endpoints: %s", err)
	}

	checkoutStore, checkoutStoreCleanup, err := mystore.New[checkout.Checkout](c)
	if err != nil {
		log.Fatalf("Error creating checkout store: %s", err)
	}
	defer checkoutStoreCleanup()
	checkoutWebService := checkout.NewWebService(checkoutStore, payers, cartService, receiptService, publisher, nower, uuider)
	err = checkoutWebService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout endpoints: %s", err)
	}

	err = push.NewWebService(push.NewHub(), pubsub).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering push endpoints: %s", err)
	}

	adminSessionStore, adminSessionCleanup, err := admin.NewSessionStore(c)
	if err != nil {
		log.Fatalf("Error creating admin session store: %s", err)
	}
	defer adminSessionCleanup()
	authenticator := admin.NewStaticAuthenticator(cfg.AdminUsername, cfg.AdminPassword)
	err = admin.NewWebService(catalogService, authenticator, adminSessionStore, nower, uuider).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering admin endpoints: %s", err)
	}

	startWebServerBlocking(cfg.Port, router)
}

func createCatalogService(c context.Context, nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) (*catalog.Service, func()) {
	productStore, productCleanup, err := mystore.New[catalogapi.Product](c)
	if err != nil {
		log.Fatalf("Error creating product store: %s", err)
	}
	statusStore, statusCleanup, err := catalog.NewStatusStore(c)
	if err != nil {
		log.Fatalf("Error creating catalog status store: %s", err)
	}

	return catalog.NewService(productStore, statusStore, nower, uuider, publisher), func() {
		statusCleanup()
		productCleanup()
	}
}

func createCartService(c context.Context, catalogService *catalog.Service, subscriber mypubsub.PubSub, nower mytime.Nower, uuider myuuid.UUIDer) (*cart.Service, func()) {
	cartStore, cartCleanup, err := mystore.New[cart.Cart](c)
	if err != nil {
		log.Fatalf("Error creating cart store: %s", err)
	}

	return cart.NewService(cartStore, catalogService, subscriber, nower, uuider), cartCleanup
}

func createReceiptService(c context.Context, nower mytime.Nower) (*receipt.Service, func()) {
	receiptStore, receiptCleanup, err := mystore.New[receipt.Receipt](c)
	if err != nil {
		log.Fatalf("Error creating receipt store: %s", err)
	}

	return receipt.NewService(receiptStore, nower), receiptCleanup
}

// createPayers wires up every payment provider that has credentials configured.
func createPayers(cfg config.Config) map[string]checkoutapi.Payer {
	payers := map[string]checkoutapi.Payer{}
	hostname := myhttp.GuessHostnameWithScheme()

	if cfg.QRProviderBaseURL != "" {
		payer := payqr.NewClient(cfg.QRProviderBaseURL, cfg.QRProviderAccessToken, myhttpclient.New())
		payers[payer.Name()] = payer
	}
	if cfg.ModoBaseURL != "" {
		payer := paymodo.NewClient(cfg.ModoBaseURL, myhttpclient.New())
		payers[payer.Name()] = payer
	}
	if cfg.MollieAPIKey != "" {
		payer, err := paymollie.NewPayer(cfg.MollieAPIKey, hostname)
		if err != nil {
			log.Fatalf("Error creating mollie payer: %s", err)
		}
		payers[payer.Name()] = payer
	}
	if cfg.StripeAPIKey != "" {
		payer := paystripe.NewPayer(cfg.StripeAPIKey, hostname)
		payers[payer.Name()] = payer
	}

	return payers
}

func sortedProviderNames(payers map[string]checkoutapi.Payer) []string {
	names := []string{}
	for name := range payers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func startWebServerBlocking(port string, router *mux.Router) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
