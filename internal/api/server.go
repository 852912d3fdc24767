package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/marketplace"
	"github.com/artmart/marketplace-engine/internal/repository"
	"github.com/artmart/marketplace-engine/internal/royalty"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	market      marketplace.Marketplace
	collectors  royalty.CollectorStorage
	saleRepo    repository.SaleRepository
	listingRepo repository.ListingRepository
}

func NewServer(
	market marketplace.Marketplace,
	collectors royalty.CollectorStorage,
	saleRepo repository.SaleRepository,
	listingRepo repository.ListingRepository,
) Server {
	return Server{market, collectors, saleRepo, listingRepo}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHomepage).Methods("GET")
	r.HandleFunc("/listings", s.handleGetListings).Methods("GET")
	r.HandleFunc("/listings/{contractAddr}/{tokenId}", s.handleGetListing).Methods("GET")
	r.HandleFunc("/listings/{contractAddr}/{tokenId}/actions", s.handleGetListingActions).Methods("GET")
	r.HandleFunc("/assets/{contractAddr}/{tokenId}/sales", s.handleGetAssetSales).Methods("GET")
	r.HandleFunc("/assets/{contractAddr}/{tokenId}/collectors", s.handleGetCollectors).Methods("GET")
	r.HandleFunc("/accounts/{address}/sales", s.handleGetAccountSales).Methods("GET")
	r.HandleFunc("/sales/{id}", s.handleGetSale).Methods("GET")
	r.NotFoundHandler = notFoundHandler()

	return r
}

// listingView is the public shape of a listing. The price of a private
// listing stays hidden until its buyer is bound.
type listingView struct {
	Asset     entity.AssetID  `json:"asset"`
	Seller    string          `json:"seller"`
	Price     uint64          `json:"price"`
	Currency  entity.Currency `json:"currency"`
	IsPrivate bool            `json:"isPrivate"`
}

func viewOf(listing entity.Listing) listingView {
	return listingView{
		Asset:     listing.Asset,
		Seller:    listing.Seller,
		Price:     listing.VisiblePrice(),
		Currency:  listing.Currency,
		IsPrivate: listing.IsPrivate,
	}
}

func (s Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	_, _ = fmt.Fprintf(w, "Marketplace Engine")
}

func (s Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	listings := s.market.Listings()

	views := make([]listingView, 0, len(listings))
	for _, listing := range listings {
		views = append(views, viewOf(listing))
	}

	writeJson(w, views)
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	asset, err := getAsset(r)
	if err != nil {
		http.Error(w, "Invalid asset", http.StatusBadRequest)
		return
	}

	listing, err := s.market.Listing(asset)
	if err != nil {
		if errors.Is(err, marketplace.ErrNotListed) {
			http.Error(w, "Listing not found", http.StatusNotFound)
			return
		}
		zap.L().With(zap.Error(err)).Error("Api: Failed to get listing")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, viewOf(listing))
}

func (s Server) handleGetListingActions(w http.ResponseWriter, r *http.Request) {
	asset, err := getAsset(r)
	if err != nil {
		http.Error(w, "Invalid asset", http.StatusBadRequest)
		return
	}

	actions, err := s.listingRepo.GetListingActions(asset.Contract, asset.TokenID, 100)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get listing actions")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, actions)
}

func (s Server) handleGetAssetSales(w http.ResponseWriter, r *http.Request) {
	asset, err := getAsset(r)
	if err != nil {
		http.Error(w, "Invalid asset", http.StatusBadRequest)
		return
	}

	sales, err := s.saleRepo.GetSalesForAsset(asset.Contract, asset.TokenID)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get sales")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, sales)
}

func (s Server) handleGetCollectors(w http.ResponseWriter, r *http.Request) {
	asset, err := getAsset(r)
	if err != nil {
		http.Error(w, "Invalid asset", http.StatusBadRequest)
		return
	}

	writeJson(w, s.collectors.Recipients(asset))
}

func (s Server) handleGetAccountSales(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	sales, err := s.saleRepo.GetSalesForAccount(address, 100)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get account sales")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, sales)
}

func (s Server) handleGetSale(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sale, err := s.saleRepo.GetSale(id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			http.Error(w, "Sale not found", http.StatusNotFound)
			return
		}
		zap.L().With(zap.Error(err)).Error("Api: Failed to get sale")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, sale)
}

func getAsset(r *http.Request) (entity.AssetID, error) {
	contract, ok := mux.Vars(r)["contractAddr"]
	if !ok {
		return entity.AssetID{}, errors.New("invalid parameters")
	}

	tokenId, err := strconv.ParseUint(mux.Vars(r)["tokenId"], 10, 64)
	if err != nil {
		return entity.AssetID{}, err
	}

	return entity.NewAssetID(contract, tokenId), nil
}

func writeJson(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to encode response")
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_, _ = fmt.Fprintf(w, "Page not found")
	})
}
