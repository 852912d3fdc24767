package repository

import (
	"encoding/json"
	"errors"

	"github.com/artmart/marketplace-engine/internal/elastic_search"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrListingNotFound = errors.New("listing not found")
)

type ListingRepository interface {
	GetListing(contract string, tokenId uint64) (entity.Listing, error)
	GetListingsForSeller(seller string, size int) ([]entity.Listing, error)
	GetListingActions(contract string, tokenId uint64, size int) ([]entity.ListingAction, error)
}

type listingRepository struct {
	elastic elastic_search.Index
}

func NewListingRepository(elastic elastic_search.Index) ListingRepository {
	return listingRepository{elastic}
}

func (r listingRepository) GetListing(contract string, tokenId uint64) (entity.Listing, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("asset.contract.keyword", contract),
		elastic.NewTermQuery("asset.tokenId", tokenId),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Size(1))

	return r.findOne(result, err)
}

func (r listingRepository) GetListingsForSeller(seller string, size int) ([]entity.Listing, error) {
	query := elastic.NewTermQuery("seller.keyword", seller)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Size(size))

	if err != nil {
		return nil, err
	}

	listings := make([]entity.Listing, 0)
	for _, hit := range result.Hits.Hits {
		var listing entity.Listing
		if err := json.Unmarshal(hit.Source, &listing); err != nil {
			return listings, err
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

func (r listingRepository) GetListingActions(contract string, tokenId uint64, size int) ([]entity.ListingAction, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("asset.contract.keyword", contract),
		elastic.NewTermQuery("asset.tokenId", tokenId),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingActionIndex.Get()).
		Query(query).
		Sort("timestamp", false).
		Size(size))

	if err != nil {
		return nil, err
	}

	actions := make([]entity.ListingAction, 0)
	for _, hit := range result.Hits.Hits {
		var action entity.ListingAction
		if err := json.Unmarshal(hit.Source, &action); err != nil {
			return actions, err
		}
		actions = append(actions, action)
	}

	return actions, nil
}

func (r listingRepository) findOne(results *elastic.SearchResult, err error) (entity.Listing, error) {
	if err != nil {
		return entity.Listing{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.Listing{}, ErrListingNotFound
	}

	var listing entity.Listing
	hit := results.Hits.Hits[0]
	err = json.Unmarshal(hit.Source, &listing)

	return listing, err
}
