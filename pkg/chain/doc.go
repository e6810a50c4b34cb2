// ABOUTME: Linear chain assembly package
// ABOUTME: Orders source, effects and sink and routes them pairwise
// Package chain builds the ordered sequence [Source, Effect1..EffectK, Sink]
// and connects each adjacent pair.
//
// Example:
//
//	c, err := chain.Builder{Source: src, Effects: effects, Sink: sink}.Build()
//	if err != nil {
//		return err
//	}
//	err = chain.Route(c)
package chain
