package compose

import (
	"fmt"
	"strings"

	"github.com/tidewater/homepress/internal/genai"
	"github.com/tidewater/homepress/internal/storage"
)

// Content templates keyed by content type. Template choice only shapes the
// section headings and framing; the idea's fields fill the same slots either
// way. Unrecognized types get the general template.

func renderTemplate(idea storage.Idea) string {
	switch idea.ContentType {
	case "guide":
		return renderGuide(idea)
	case "review":
		return renderReview(idea)
	case "comparison":
		return renderComparison(idea)
	default:
		return renderGeneral(idea)
	}
}

func renderGuide(idea storage.Idea) string {
	topic := strings.ToLower(idea.Topic)
	return strings.TrimSpace(fmt.Sprintf(`
# %s

As a new homeowner in Virginia, you're embarking on an exciting journey. Whether you've just purchased your first home in Northern Virginia, Richmond, or Virginia Beach, this guide will help you navigate %s.

## Why This Matters for Virginia Homeowners

Virginia's humid subtropical climate and regional housing markets shape everything from HVAC needs to seasonal maintenance, and the right preparation saves money in the first year.

## Essential Considerations

### 1. Virginia Climate Factors

Hot, humid summers and mild winters affect what equipment you need and when to service it.

### 2. Regional Variations

- **Northern Virginia**: higher costs but more amenities
- **Richmond Area**: balanced market with good value
- **Coastal Areas**: hurricane preparedness considerations
- **Rural Areas**: well water and septic considerations

## Step-by-Step Guide

### Phase 1: Assessment and Planning

Take stock of what the home already has, what you need right away, and what your budget allows before buying anything.

### Phase 2: Implementation

Prioritize immediate needs in the first 30 days, short-term improvements over the first six months, and larger upgrades after the first year.

### Phase 3: Maintenance and Optimization

Put recurring tasks on a calendar so the investment keeps paying off.

## Product Recommendations

Our current picks for this category appear below, drawn from products Virginia homeowners rate highly.

## Virginia-Specific Tips

- **Spring**: HVAC maintenance and outdoor prep
- **Summer**: energy efficiency and cooling
- **Fall**: winterization and storm preparation
- **Winter**: indoor comfort and energy conservation

## Common Mistakes to Avoid

Rushing major purchases, ignoring seasonal timing, overlooking local regulations, and skipping the maintenance budget are the four traps we see most often.

## Conclusion

%s doesn't have to be overwhelming. Take a systematic approach, lean on Virginia-specific insights, and consult local professionals when a job is bigger than a weekend.
`, idea.Topic, topic, idea.Topic))
}

func renderReview(idea storage.Idea) string {
	return strings.TrimSpace(fmt.Sprintf(`
# %s

Finding the right products for your new Virginia home can be overwhelming. We've done the research so you don't have to.

## Our Selection Criteria

We weigh climate compatibility, value for money, reliability through Virginia's weather swings, local parts and service availability, and energy efficiency.

## Top Recommendations

### Best Overall

Our top pick balances performance and price for most Virginia households.

### Best Budget Option

A dependable choice for first-time buyers watching every dollar.

### Premium Choice

For homeowners ready to invest in the long term.

## Installation and Setup

Some of these products are weekend DIY projects; others are worth a licensed Virginia contractor. Check local codes before you start.

## Maintenance and Care

A simple seasonal schedule keeps any of these picks running: service before summer humidity and again before the first frost.

## Final Verdict

Match the pick to your region and budget. Every option here has earned its place with Virginia homeowners.
`, idea.Topic))
}

func renderComparison(idea storage.Idea) string {
	return strings.TrimSpace(fmt.Sprintf(`
# %s

Choosing between options is hard when every product page promises the world. This comparison grounds the decision in your needs, budget, and Virginia's requirements.

## Quick Comparison Overview

A side-by-side look at price, best-fit use case, climate suitability, and installation effort for each contender.

## Detailed Analysis

### Option A

Strongest on value; the usual pick for first homes.

### Option B

Strongest on features; worth it if you'll use them.

### Option C

The premium route, with the service network to match.

## Decision Framework

- **Northern Virginia**: budgets run higher, so weight long-term value
- **Richmond and Central Virginia**: balance features against cost
- **Rural Virginia**: reliability and serviceability come first

## Cost Analysis

Factor in purchase price, installation, and five years of maintenance and energy before calling one option cheaper than another.

## Final Recommendation

All of these will serve you well. Pick the one whose trade-offs match your region and how long you plan to stay.
`, idea.Topic))
}

func renderGeneral(idea storage.Idea) string {
	topic := strings.ToLower(idea.Topic)
	return strings.TrimSpace(fmt.Sprintf(`
# %s

Welcome to another essential guide for Virginia homeowners. Whether you're settling into your first home in Alexandria, Richmond, or Virginia Beach, understanding %s is part of making the place your own.

## Key Points to Consider

### 1. Virginia-Specific Factors

State programs, regional climate, and local regulations all bear on this topic.

### 2. Current Market Conditions

With Virginia's housing inventory up year-over-year and buyer-friendly conditions emerging, timing is on your side.

### 3. Regional Variations

Northern Virginia, the Richmond metro, Hampton Roads, and rural counties each come with their own considerations.

## Practical Steps and Recommendations

Start with the changes that pay for themselves fastest, then plan larger projects around Virginia's seasons.

## Resources and Tools

Virginia Housing (VHDA) programs, local utility rebates, and regional professional associations are worth a look before you spend.

## Seasonal Considerations

Each season brings its own checklist; the spring and fall transitions are when most Virginia homes need attention.

## Conclusion

Every Virginia home and homeowner situation is unique. Use this guide as a starting point and bring in local professionals for anything specific to your area.
`, idea.Topic, topic))
}

// assembleCopy turns validated model copy into the same markdown shape the
// templates produce: title heading, intro, H2 sections, conclusion.
func assembleCopy(idea storage.Idea, c genai.Copy) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", idea.Topic)
	sb.WriteString(strings.TrimSpace(c.Introduction))
	for _, s := range c.Sections {
		fmt.Fprintf(&sb, "\n\n## %s\n\n", strings.TrimSpace(s.Heading))
		sb.WriteString(strings.TrimSpace(s.Body))
	}
	fmt.Fprintf(&sb, "\n\n## Conclusion\n\n%s", strings.TrimSpace(c.Conclusion))
	return sb.String()
}
