package docref_test

import (
	"context"
	"fmt"

	docref "github.com/docref/docref.go"
	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store/memstore"
)

func ExampleRef_Resolve() {
	type Planet struct {
		Name string `cbor:"name"`
	}
	type Country struct {
		Name   string             `cbor:"name"`
		Planet docref.Ref[Planet] `cbor:"planet"`
	}

	ctx := context.Background()
	db := docref.New(memstore.New())
	defer db.Close()

	earth := models.NewRecordID("planet", "earth")
	if _, err := docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"}); err != nil {
		panic(err)
	}

	ukID := models.NewRecordID("country", "uk")
	if _, err := docref.Create[struct{}](ctx, db, ukID, Country{
		Name:   "UK",
		Planet: docref.NewRef[Planet](earth),
	}); err != nil {
		panic(err)
	}

	uk, err := docref.Select[Country](ctx, db, ukID)
	if err != nil {
		panic(err)
	}

	// The first resolution fetches the planet; the second returns the
	// cached target without going back to the store.
	planet, err := uk.Planet.Resolve(ctx, db)
	if err != nil {
		panic(err)
	}
	fmt.Println(planet.Name)

	again, _ := uk.Planet.Resolve(ctx, db)
	fmt.Println(planet == again)

	// Output:
	// Earth
	// true
}

func ExampleSelectByRef() {
	type Planet struct {
		Name string `cbor:"name"`
	}
	type Country struct {
		Name   string             `cbor:"name"`
		Planet docref.Ref[Planet] `cbor:"planet"`
	}

	ctx := context.Background()
	db := docref.New(memstore.New())
	defer db.Close()

	earth := models.NewRecordID("planet", "earth")
	if _, err := docref.Create[struct{}](ctx, db, earth, Planet{Name: "Earth"}); err != nil {
		panic(err)
	}

	for _, name := range []string{"uk", "france"} {
		id := models.NewRecordID("country", name)
		if _, err := docref.Create[struct{}](ctx, db, id, Country{
			Name:   name,
			Planet: docref.NewRef[Planet](earth),
		}); err != nil {
			panic(err)
		}
	}

	countries, err := docref.SelectByRef[Country](ctx, db, "country", "planet", earth)
	if err != nil {
		panic(err)
	}
	for _, c := range countries {
		fmt.Println(c.Name)
	}

	// Output:
	// france
	// uk
}
