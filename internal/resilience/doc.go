// Package resilience groups the failure handling shared by the recipe
// service: circuitbreaker stops calling TheMealDB, the image hosts or a SQL
// store once they keep failing, and retry waits for the store at startup.
//
//	breaker := circuitbreaker.New(circuitbreaker.MealDBConfig())
//	meals, err := breaker.Execute(func() (interface{}, error) {
//	    return fetchMeals(ctx, query)
//	})
//
//	err := retry.WithBackoff(ctx, retry.StoreOpenConfig(), func() error {
//	    store, err = persistence.Open(ctx, cfg.Store)
//	    return err
//	})
package resilience
