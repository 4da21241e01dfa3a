package usecase

import (
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
)

// CheckCartConflicts applies the ownership-conflict rules to a proposed cart:
//
//  1. direct conflict when the line's product is owned outright;
//  2. a bundle line conflicts when any of its package members is owned;
//  3. a standalone line conflicts when any owned bundle's package contains it.
//
// Conflicts are reported in cart order and a line appears at most once even
// when several rules match. The check is advisory client-side (owned ids can
// be stale there) and authoritative when re-run before session creation.
func CheckCartConflicts(lines []model.CartLine, owned map[string]struct{}, catalog map[string]*model.Product) model.ConflictReport {
	var report model.ConflictReport

	// Owned bundles, resolved once: rule 3 scans their packages per line.
	var ownedBundles []*model.Product
	for id := range owned {
		if p, ok := catalog[id]; ok && p.IsBundle {
			ownedBundles = append(ownedBundles, p)
		}
	}

	for _, line := range lines {
		if _, ok := owned[line.ProductID]; ok {
			report.Lines = append(report.Lines, model.ConflictingLine{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Reason:      model.ConflictOwned,
			})
			continue
		}

		product, ok := catalog[line.ProductID]
		if !ok {
			// Unknown products are the validator's problem, not a conflict.
			continue
		}

		if product.IsBundle {
			if memberID, hit := firstOwnedMember(product, owned); hit {
				member := catalog[memberID]
				cl := model.ConflictingLine{
					ProductID:    line.ProductID,
					ProductName:  line.ProductName,
					Reason:       model.ConflictBundleMemberOwned,
					ViaProductID: memberID,
				}
				if member != nil {
					cl.ViaProductName = member.Name
				}
				report.Lines = append(report.Lines, cl)
			}
			continue
		}

		for _, bundle := range ownedBundles {
			if bundle.ContainsMember(line.ProductID) {
				report.Lines = append(report.Lines, model.ConflictingLine{
					ProductID:      line.ProductID,
					ProductName:    line.ProductName,
					Reason:         model.ConflictInOwnedBundle,
					ViaProductID:   bundle.ID,
					ViaProductName: bundle.Name,
				})
				break
			}
		}
	}

	report.HasConflicts = len(report.Lines) > 0
	return report
}

func firstOwnedMember(bundle *model.Product, owned map[string]struct{}) (string, bool) {
	for _, id := range bundle.PackageIDs {
		if _, ok := owned[id]; ok {
			return id, true
		}
	}
	return "", false
}
